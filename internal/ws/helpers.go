package ws

import (
	"context"

	"github.com/google/uuid"

	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

func newConnID() string {
	return uuid.NewString()
}

// repoFetcher adapts MessageRepository to the timeline's Fetcher.
type repoFetcher struct {
	repo repositories.MessageRepository
}

func (f repoFetcher) FetchMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	return f.repo.ListMessages(ctx, chatID, nil)
}

// repoSender adapts MessageRepository to the timeline's Sender.
type repoSender struct {
	repo repositories.MessageRepository
}

func (s repoSender) SendMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	return s.repo.CreateMessage(ctx, chatID, senderID, content)
}
