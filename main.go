package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"neighbourly-service/internal/auth"
	"neighbourly-service/internal/config"
	"neighbourly-service/internal/db"
	"neighbourly-service/internal/handlers"
	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/middleware"
	"neighbourly-service/internal/observability"
	"neighbourly-service/internal/rabbitmq"
	"neighbourly-service/internal/repositories"
	"neighbourly-service/internal/reviews"
	"neighbourly-service/internal/telemetry"
	"neighbourly-service/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := observability.InitTracing(context.Background(), cfg.OTLPEndpoint, cfg.Environment)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.neighbourly", "neighbourly-service", cfg.Environment)

	if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("event publisher disabled: %v", err)
	} else {
		observability.SetPublisher(amqpPublisher)
		defer amqpPublisher.Close()
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reviewRepo := repositories.NewReviewRepo(database)
	requestRepo := repositories.NewRequestRepo(database)
	profileRepo := repositories.NewProfileRepo(database)

	hub := ws.NewHub()

	engine := lifecycle.NewEngine(chatRepo)
	workflow := reviews.NewWorkflow(chatRepo, reviewRepo, engine, hub.BroadcastLifecycle)

	authHandler := handlers.NewAuthHandler(profileRepo, tokens)
	profileHandler := handlers.NewProfileHandler(profileRepo, reviewRepo)
	requestHandler := handlers.NewRequestHandler(requestRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, requestRepo, engine, workflow, hub, auditEmitter)
	reviewHandler := handlers.NewReviewHandler(workflow, auditEmitter)

	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, messageRepo, tokens)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("neighbourly-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	authMiddleware := middleware.AuthMiddleware(tokens)

	router.GET("/profiles/me", authMiddleware, profileHandler.Me)
	router.PUT("/profiles/me", authMiddleware, profileHandler.UpdateMe)
	router.GET("/profiles/:profile_id", authMiddleware, profileHandler.GetProfile)
	router.GET("/profiles/:profile_id/reviews", authMiddleware, profileHandler.ListReviews)

	router.POST("/requests", authMiddleware, requestHandler.Create)
	router.GET("/requests", authMiddleware, requestHandler.List)
	router.GET("/requests/nearby", authMiddleware, requestHandler.Nearby)
	router.GET("/requests/:request_id", authMiddleware, requestHandler.Get)
	router.POST("/requests/:request_id/close", authMiddleware, requestHandler.Close)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id", authMiddleware, chatHandler.GetChat)
	router.POST("/chats/:chat_id/offer", authMiddleware, chatHandler.MakeOffer)
	router.POST("/chats/:chat_id/accept", authMiddleware, chatHandler.AcceptOffer)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostMessage)
	router.POST("/chats/:chat_id/read", authMiddleware, chatHandler.MarkRead)
	router.POST("/chats/:chat_id/reviews", authMiddleware, reviewHandler.SubmitReview)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
