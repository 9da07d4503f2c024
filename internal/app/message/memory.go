package message

import (
	"context"
	"sort"
	"sync"
	"time"

	"chatcore/internal/pkg/randx"
)

// MemoryStore is an in-process Store. Messages of one room are kept in append order.
type MemoryStore struct {
	mu     sync.RWMutex
	byRoom map[string][]Message
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRoom: make(map[string][]Message),
		now:    time.Now,
	}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, msg NewMessage) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := msg.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	if msgs := s.byRoom[msg.ChatRoom]; len(msgs) > 0 && !created.After(msgs[len(msgs)-1].CreatedAt) {
		// keep timestamps strictly increasing per room so "before" cursors never skip
		created = msgs[len(msgs)-1].CreatedAt.Add(time.Microsecond)
	}

	record := Message{
		ID:        randx.MessageID(),
		Sender:    msg.Sender,
		ChatRoom:  msg.ChatRoom,
		Content:   msg.Content,
		Type:      msg.Type,
		CreatedAt: created,
	}
	s.byRoom[msg.ChatRoom] = append(s.byRoom[msg.ChatRoom], record)

	return &record, nil
}

// ListByRoom implements Store.
func (s *MemoryStore) ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	msgs := s.byRoom[roomID]
	end := len(msgs)
	if !before.IsZero() {
		end = sort.Search(len(msgs), func(i int) bool { return !msgs[i].CreatedAt.Before(before) })
	}

	out := make([]Message, 0, min(limit, end))
	for i := end - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	s.mu.RUnlock()

	return out, nil
}

// Count returns the number of messages stored for roomID.
func (s *MemoryStore) Count(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byRoom[roomID])
}
