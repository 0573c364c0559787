// Package timeline maintains a per-viewer, order-correct, duplicate-free view
// of one chat's messages, merged from three producers: the initial bulk
// fetch, optimistic local appends awaiting server confirmation, and realtime
// insert deliveries. Realtime delivery is at-least-once; id-based dedup in
// the merge makes replay after reconnection safe.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"neighbourly-service/internal/models"
)

var (
	// ErrFetchFailed wraps initial-load failures; the previously displayed
	// view is kept so a failed refresh never blanks the screen.
	ErrFetchFailed = errors.New("message fetch failed")
	// ErrSendFailed wraps insert failures surfaced through SendError.
	ErrSendFailed = errors.New("message send failed")

	ErrEmptyContent       = errors.New("message content is empty")
	ErrUnknownProvisional = errors.New("unknown provisional message")
)

// SendError reports a failed confirm. Draft carries the original text back to
// the caller for resubmission after the provisional entry was rolled back.
type SendError struct {
	Draft string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSendFailed) match a SendError.
func (e *SendError) Is(target error) bool { return target == ErrSendFailed }

// Fetcher loads the authoritative ascending message list for a chat.
type Fetcher interface {
	FetchMessages(ctx context.Context, chatID int) ([]models.Message, error)
}

// Sender performs the network insert and returns the authoritative stored
// row.
type Sender interface {
	SendMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
}

// Timeline is the merge engine for one viewer's session on one chat. All
// methods are safe for concurrent use; the merged view is always sorted
// ascending by creation time.
type Timeline struct {
	chatID   int
	viewerID int
	fetcher  Fetcher
	sender   Sender

	mu              sync.Mutex
	entries         []models.Message
	nextProvisional int
}

// New builds an empty timeline for the viewer on the chat.
func New(chatID int, viewerID int, fetcher Fetcher, sender Sender) *Timeline {
	return &Timeline{
		chatID:          chatID,
		viewerID:        viewerID,
		fetcher:         fetcher,
		sender:          sender,
		nextProvisional: -1,
	}
}

// LoadInitial replaces the persisted entries with a fresh bulk fetch,
// carrying any still-pending provisional entries over. On failure the current
// view is left untouched and a retryable ErrFetchFailed is returned.
func (t *Timeline) LoadInitial(ctx context.Context) error {
	msgs, err := t.fetcher.FetchMessages(ctx, t.chatID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []models.Message
	for _, entry := range t.entries {
		if entry.Provisional() {
			pending = append(pending, entry)
		}
	}

	t.entries = t.entries[:0]
	for _, msg := range msgs {
		t.mergeLocked(msg)
	}
	for _, msg := range pending {
		t.mergeLocked(msg)
	}
	return nil
}

// AppendOptimistic adds a locally-created message with a unique negative
// provisional id and the local wall clock, so the view reflects the send
// before the network round-trip completes. Optimistic entries carry "now" as
// their timestamp and therefore sort last until reconciled.
func (t *Timeline) AppendOptimistic(content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyContent
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	msg := models.Message{
		ID:        t.nextProvisional,
		ChatID:    t.chatID,
		SenderID:  t.viewerID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	t.nextProvisional--
	t.mergeLocked(msg)
	return msg, nil
}

// ConfirmSend performs the network insert for a provisional entry. On success
// the provisional entry is swapped for the authoritative row; the realtime
// copy of the same row is later discarded by id dedup. On failure the
// provisional entry is rolled back and the draft text returned inside a
// SendError.
func (t *Timeline) ConfirmSend(ctx context.Context, provisionalID int) (models.Message, error) {
	t.mu.Lock()
	draft, ok := t.findLocked(provisionalID)
	t.mu.Unlock()
	if !ok || provisionalID >= 0 {
		return models.Message{}, ErrUnknownProvisional
	}

	// The insert may suspend; the view can change underneath it (realtime
	// arrivals, a concurrent reload), so state is re-examined after.
	stored, err := t.sender.SendMessage(ctx, t.chatID, t.viewerID, draft.Content)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(provisionalID)
	if err != nil {
		return models.Message{}, &SendError{Draft: draft.Content, Err: err}
	}
	t.mergeLocked(stored)
	return stored, nil
}

// OnInsert merges a realtime-delivered message. Duplicate delivery of an
// already-present id is discarded; otherwise the message is inserted at the
// position preserving ascending created_at order. The return value reports
// whether the view changed.
func (t *Timeline) OnInsert(msg models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mergeLocked(msg)
}

// Snapshot returns a copy of the merged view, ascending by creation time.
func (t *Timeline) Snapshot() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries in the view.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Timeline) findLocked(id int) (models.Message, bool) {
	for _, entry := range t.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return models.Message{}, false
}

func (t *Timeline) removeLocked(id int) {
	for i, entry := range t.entries {
		if entry.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

func (t *Timeline) mergeLocked(msg models.Message) bool {
	if _, exists := t.findLocked(msg.ID); exists {
		return false
	}

	// Common case is tail insertion: a new message is newest.
	if n := len(t.entries); n == 0 || !t.entries[n-1].CreatedAt.After(msg.CreatedAt) {
		t.entries = append(t.entries, msg)
		return true
	}

	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].CreatedAt.After(msg.CreatedAt)
	})
	t.entries = append(t.entries, models.Message{})
	copy(t.entries[idx+1:], t.entries[idx:])
	t.entries[idx] = msg
	return true
}
