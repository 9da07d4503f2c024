package room

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/app/db"
)

func newPostgresDirectory(t *testing.T) *PostgresDirectory {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_URL not set, skipping postgres tests")
	}

	pool, err := db.NewPool(context.Background(), dsn, db.PoolOptions{})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewPostgresDirectory(pool)
}

func TestPostgresDirectoryRoundTrip(t *testing.T) {
	dir := newPostgresDirectory(t)
	ctx := context.Background()

	r, err := dir.Create(ctx, &Room{Name: "pg", IsGroup: true, Members: []string{"u1"}, Admins: []string{"u1"}, CreatedBy: "u1"})
	require.NoError(t, err)

	updated, err := dir.Update(ctx, r.ID, func(r *Room) error {
		r.Members = addUnique(r.Members, "u2")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, updated.Members)
	assert.Equal(t, r.Version+1, updated.Version)

	require.NoError(t, dir.UpdateLastMessage(ctx, r.ID, LastMessage{Text: "hi", Sender: "u1"}))
	got, err := dir.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.MessagesCount)
	assert.Equal(t, "hi", got.LastMessage.Text)
	assert.Equal(t, updated.Version, got.Version)

	members, err := dir.GetMembers(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, members)

	_, err = dir.GetMembers(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresDirectoryPrivateUniqueness(t *testing.T) {
	dir := newPostgresDirectory(t)
	ctx := context.Background()

	a, b := "pg-a-"+t.Name(), "pg-b-"+t.Name()
	ids := make(chan string, 8)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := dir.FindOrCreatePrivate(ctx, b, a)
			if assert.NoError(t, err) {
				ids <- r.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	first := ""
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
	}
}
