package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatcore/internal/app/message"
)

const eventTimeout = 2 * time.Second

// recorder is a Subscriber that records everything delivered to it.
type recorder struct {
	id     string
	reject bool

	mu  sync.Mutex
	got [][]byte
}

func (r *recorder) SessionID() string { return r.id }

func (r *recorder) Deliver(data []byte) bool {
	if r.reject {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, data)
	return true
}

func (r *recorder) frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, b := range r.got {
		out[i] = string(b)
	}
	return out
}

type decoded struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// nextEvent waits for the next queued event of s.
func nextEvent(t *testing.T, s *Session) decoded {
	t.Helper()
	select {
	case data := <-s.Send():
		var ev decoded
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(eventTimeout):
		t.Fatalf("session %s: no event within %s", s.SessionID(), eventTimeout)
		return decoded{}
	}
}

// expectEvent waits for the next event and decodes its payload into dst.
func expectEvent(t *testing.T, s *Session, want EventType, dst any) {
	t.Helper()
	ev := nextEvent(t, s)
	require.Equal(t, want, ev.Type, "payload: %s", ev.Payload)
	if dst != nil {
		require.NoError(t, json.Unmarshal(ev.Payload, dst))
	}
}

// expectNoEvent asserts the queue of s stays empty.
func expectNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data := <-s.Send():
		t.Fatalf("session %s: unexpected event %s", s.SessionID(), data)
	case <-time.After(50 * time.Millisecond):
	}
}

var errStoreDown = errors.New("store down")

// failingStore rejects every append.
type failingStore struct{ message.Store }

func (failingStore) Append(context.Context, message.NewMessage) (*message.Message, error) {
	return nil, errStoreDown
}

// blockingStore blocks appends to one room until the context ends.
type blockingStore struct {
	*message.MemoryStore
	room    string
	entered chan struct{}
}

func (b *blockingStore) Append(ctx context.Context, msg message.NewMessage) (*message.Message, error) {
	if msg.ChatRoom == b.room {
		close(b.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.MemoryStore.Append(ctx, msg)
}

// cancellingStore cancels the caller's context right after a successful append,
// as a disconnect racing the pipeline would. With reportCancel it behaves like a
// driver that committed the row but still surfaces the context error.
type cancellingStore struct {
	*message.MemoryStore
	cancel       context.CancelFunc
	reportCancel bool
}

func (c *cancellingStore) Append(ctx context.Context, msg message.NewMessage) (*message.Message, error) {
	m, err := c.MemoryStore.Append(ctx, msg)
	c.cancel()
	if err == nil && c.reportCancel {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return m, err
}
