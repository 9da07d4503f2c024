package message

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppend(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	msg, err := store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: "r1", Content: "hi"})
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "u1", msg.Sender)
	assert.Equal(t, "r1", msg.ChatRoom)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, DefaultType, msg.Type)
	assert.False(t, msg.IsLiked)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Equal(t, 1, store.Count("r1"))
}

func TestMemoryStoreAppendRejectsMissingFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, m := range []NewMessage{
		{ChatRoom: "r1", Content: "hi"},
		{Sender: "u1", Content: "hi"},
		{Sender: "u1", ChatRoom: "r1"},
	} {
		_, err := store.Append(ctx, m)
		assert.ErrorIs(t, err, ErrInvalid)
	}
	assert.Equal(t, 0, store.Count("r1"))
}

func TestMemoryStoreListByRoom(t *testing.T) {
	store := NewMemoryStore()
	fixed := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	var ids []string
	for _, content := range []string{"one", "two", "three", "four"} {
		m, err := store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: "r1", Content: content, Type: "note"})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	_, err := store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: "r2", Content: "elsewhere"})
	require.NoError(t, err)

	page, err := store.ListByRoom(ctx, "r1", time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"four", "three", "two"}, []string{page[0].Content, page[1].Content, page[2].Content})
	assert.Equal(t, "note", page[0].Type)

	older, err := store.ListByRoom(ctx, "r1", page[2].CreatedAt, 3)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, ids[0], older[0].ID)

	empty, err := store.ListByRoom(ctx, "nowhere", time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: "r1", Content: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Count("r1"))
	all, err := store.ListByRoom(ctx, "r1", time.Time{}, 100)
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
	}
}
