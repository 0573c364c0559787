package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighbourly-service/internal/models"
)

type fakeFetcher struct {
	msgs []models.Message
	err  error
}

func (f *fakeFetcher) FetchMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	return f.msgs, f.err
}

type fakeSender struct {
	stored models.Message
	err    error
	calls  int
}

func (s *fakeSender) SendMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	s.calls++
	if s.err != nil {
		return models.Message{}, s.err
	}
	msg := s.stored
	msg.ChatID = chatID
	msg.SenderID = senderID
	msg.Content = content
	return msg, nil
}

func at(sec int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, sec, 0, time.UTC)
}

func msg(id, sec int) models.Message {
	return models.Message{ID: id, ChatID: 1, SenderID: 2, Content: "m", CreatedAt: at(sec)}
}

func ids(msgs []models.Message) []int {
	out := make([]int, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestLoadInitialOrdersAscending(t *testing.T) {
	fetcher := &fakeFetcher{msgs: []models.Message{msg(3, 30), msg(1, 10), msg(2, 20)}}
	tl := New(1, 2, fetcher, nil)

	require.NoError(t, tl.LoadInitial(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, ids(tl.Snapshot()))
}

func TestOnInsertDuplicateIsDiscarded(t *testing.T) {
	tl := New(1, 2, nil, nil)

	assert.True(t, tl.OnInsert(msg(7, 10)))
	assert.False(t, tl.OnInsert(msg(7, 10)))
	assert.False(t, tl.OnInsert(msg(7, 99)))
	assert.Equal(t, 1, tl.Len())
}

func TestOnInsertOutOfOrderDelivery(t *testing.T) {
	tl := New(1, 2, nil, nil)

	tl.OnInsert(msg(3, 30))
	tl.OnInsert(msg(1, 10))
	tl.OnInsert(msg(2, 20))

	assert.Equal(t, []int{1, 2, 3}, ids(tl.Snapshot()))
}

func TestAppendOptimisticAssignsDescendingProvisionalIDs(t *testing.T) {
	tl := New(1, 2, nil, nil)

	first, err := tl.AppendOptimistic("one")
	require.NoError(t, err)
	second, err := tl.AppendOptimistic("two")
	require.NoError(t, err)

	assert.Equal(t, -1, first.ID)
	assert.Equal(t, -2, second.ID)
	assert.True(t, first.Provisional())
	assert.Equal(t, 2, tl.Len())
}

func TestAppendOptimisticRejectsBlankContent(t *testing.T) {
	tl := New(1, 2, nil, nil)

	_, err := tl.AppendOptimistic("   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 0, tl.Len())
}

func TestConfirmSendSwapsProvisionalForStoredRow(t *testing.T) {
	sender := &fakeSender{stored: models.Message{ID: 42, CreatedAt: at(50)}}
	tl := New(1, 2, nil, sender)

	draft, err := tl.AppendOptimistic("hello")
	require.NoError(t, err)

	stored, err := tl.ConfirmSend(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, stored.ID)
	assert.Equal(t, "hello", stored.Content)

	view := tl.Snapshot()
	require.Len(t, view, 1)
	assert.Equal(t, 42, view[0].ID)

	// The realtime copy of the stored row arrives afterwards and is dropped.
	assert.False(t, tl.OnInsert(stored))
	assert.Equal(t, 1, tl.Len())
}

func TestConfirmSendFailureRollsBackAndReturnsDraft(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	tl := New(1, 2, nil, sender)

	draft, err := tl.AppendOptimistic("hello")
	require.NoError(t, err)

	_, err = tl.ConfirmSend(context.Background(), draft.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "hello", sendErr.Draft)
	assert.Equal(t, 0, tl.Len())
}

func TestConfirmSendUnknownProvisional(t *testing.T) {
	tl := New(1, 2, nil, &fakeSender{})

	_, err := tl.ConfirmSend(context.Background(), -99)
	assert.ErrorIs(t, err, ErrUnknownProvisional)

	tl.OnInsert(msg(7, 10))
	_, err = tl.ConfirmSend(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnknownProvisional)
}

func TestLoadInitialFailureKeepsView(t *testing.T) {
	fetcher := &fakeFetcher{msgs: []models.Message{msg(1, 10)}}
	tl := New(1, 2, fetcher, nil)
	require.NoError(t, tl.LoadInitial(context.Background()))

	fetcher.err = assert.AnError
	err := tl.LoadInitial(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, []int{1}, ids(tl.Snapshot()))
}

func TestLoadInitialCarriesPendingProvisionals(t *testing.T) {
	fetcher := &fakeFetcher{msgs: []models.Message{msg(1, 10)}}
	tl := New(1, 2, fetcher, nil)

	draft, err := tl.AppendOptimistic("pending")
	require.NoError(t, err)

	require.NoError(t, tl.LoadInitial(context.Background()))

	view := tl.Snapshot()
	require.Len(t, view, 2)
	assert.Equal(t, 1, view[0].ID)
	assert.Equal(t, draft.ID, view[1].ID)
}
