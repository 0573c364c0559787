package ws

import "time"

// ConnInfo captures identity and correlation metadata for one websocket
// connection.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
