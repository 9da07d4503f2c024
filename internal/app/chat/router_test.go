package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterPublishWithoutSubscribers(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, 0, r.Publish("empty", []byte("x"), ""))
	assert.Equal(t, 0, r.Rooms())
}

func TestRouterPublishAndExclude(t *testing.T) {
	r := NewRouter()
	a, b, c := &recorder{id: "a"}, &recorder{id: "b"}, &recorder{id: "c"}

	assert.True(t, r.Subscribe("r1", a))
	assert.False(t, r.Subscribe("r1", a))
	r.Subscribe("r1", b)
	r.Subscribe("r2", c)

	assert.Equal(t, 2, r.Publish("r1", []byte("m1"), ""))
	assert.Equal(t, 1, r.Publish("r1", []byte("m2"), "a"))

	assert.Equal(t, []string{"m1"}, a.frames())
	assert.Equal(t, []string{"m1", "m2"}, b.frames())
	assert.Empty(t, c.frames())
}

func TestRouterSkipsRejectingSubscriber(t *testing.T) {
	r := NewRouter()
	slow, fast := &recorder{id: "slow", reject: true}, &recorder{id: "fast"}
	r.Subscribe("r1", slow)
	r.Subscribe("r1", fast)

	assert.Equal(t, 1, r.Publish("r1", []byte("m"), ""))
	assert.Equal(t, []string{"m"}, fast.frames())
}

func TestRouterUnsubscribeDropsEmptyRoom(t *testing.T) {
	r := NewRouter()
	a := &recorder{id: "a"}
	r.Subscribe("r1", a)
	require.Equal(t, 1, r.Rooms())

	assert.True(t, r.Unsubscribe("r1", "a"))
	assert.False(t, r.Unsubscribe("r1", "a"))
	assert.False(t, r.Unsubscribe("nowhere", "a"))
	assert.Equal(t, 0, r.Rooms())
	assert.Equal(t, 0, r.Subscribers("r1"))
	assert.Equal(t, 0, r.Publish("r1", []byte("m"), ""))
}

func TestRouterPerRoomFIFO(t *testing.T) {
	r := NewRouter()
	a, b := &recorder{id: "a"}, &recorder{id: "b"}
	r.Subscribe("r1", a)
	r.Subscribe("r1", b)

	const publishers, perPublisher = 4, 100
	var wg sync.WaitGroup
	for p := range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perPublisher {
				r.Publish("r1", fmt.Appendf(nil, "%d-%03d", p, i), "")
			}
		}()
	}
	wg.Wait()

	gotA, gotB := a.frames(), b.frames()
	require.Len(t, gotA, publishers*perPublisher)
	// every subscriber observes the same total order
	assert.Equal(t, gotA, gotB)

	// and each publisher's own events stay in submission order
	last := make(map[byte]string)
	for _, f := range gotA {
		prev, seen := last[f[0]]
		if seen {
			assert.Less(t, prev, f)
		}
		last[f[0]] = f
	}
}
