package message

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/app/db"
	"chatcore/internal/pkg/randx"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_URL not set, skipping postgres tests")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn, db.PoolOptions{})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer pool.Close()

	store := NewPostgresStore(pool)
	roomID := randx.RoomID()

	first, err := store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: roomID, Content: "one"})
	require.NoError(t, err)
	assert.Equal(t, DefaultType, first.Type)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := store.Append(ctx, NewMessage{Sender: "u2", ChatRoom: roomID, Content: "two", Type: "note"})
	require.NoError(t, err)

	page, err := store.ListByRoom(ctx, roomID, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, second.ID, page[0].ID)
	assert.Equal(t, first.ID, page[1].ID)

	older, err := store.ListByRoom(ctx, roomID, second.CreatedAt, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, first.ID, older[0].ID)

	_, err = store.Append(ctx, NewMessage{Sender: "u1", ChatRoom: roomID})
	assert.ErrorIs(t, err, ErrInvalid)
}
