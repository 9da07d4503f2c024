/*
Package chat contains the live-delivery core.

This file defines the Router, which maintains RoomId -> set<SessionId> and fans
events out to every subscriber of a room. The table is split into shards keyed
by room id; delivery always happens outside the shard lock.
*/
package chat

import (
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"chatcore/internal/pkg/logx"
)

const shardCount = 32

// Subscriber is a delivery target held by the Router.
type Subscriber interface {
	// SessionID identifies the subscriber within a room.
	SessionID() string

	// Deliver enqueues an encoded event without blocking. It reports whether the event was accepted.
	Deliver(data []byte) bool
}

// channel is the subscription set of one room.
type channel struct {
	// order serializes publishes to this room, giving per-room FIFO.
	order sync.Mutex

	// subs is guarded by the owning shard's mu.
	subs map[string]Subscriber
}

type shard struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

// Router is the room channel router.
type Router struct {
	shards [shardCount]shard

	// structured logger with Router context.
	logger zerolog.Logger
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	r := &Router{logger: logx.Component("Router")}
	for i := range r.shards {
		r.shards[i].channels = make(map[string]*channel)
	}
	return r
}

func (r *Router) shardFor(roomID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return &r.shards[h.Sum32()%shardCount]
}

// Subscribe adds sub to roomID. It reports false if sub was already subscribed.
func (r *Router) Subscribe(roomID string, sub Subscriber) bool {
	sh := r.shardFor(roomID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ch, ok := sh.channels[roomID]
	if !ok {
		ch = &channel{subs: make(map[string]Subscriber)}
		sh.channels[roomID] = ch
	}

	if _, exists := ch.subs[sub.SessionID()]; exists {
		return false
	}
	ch.subs[sub.SessionID()] = sub
	return true
}

// Unsubscribe removes sessionID from roomID. Empty rooms are dropped from the table.
// It reports whether a subscription was removed.
func (r *Router) Unsubscribe(roomID, sessionID string) bool {
	sh := r.shardFor(roomID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	ch, ok := sh.channels[roomID]
	if !ok {
		return false
	}
	if _, exists := ch.subs[sessionID]; !exists {
		return false
	}

	delete(ch.subs, sessionID)
	if len(ch.subs) == 0 {
		delete(sh.channels, roomID)
	}
	return true
}

// Publish delivers data to every subscriber of roomID except exclude (may be "").
// Slow subscribers are skipped, never waited on. It returns the number of deliveries.
func (r *Router) Publish(roomID string, data []byte, exclude string) int {
	sh := r.shardFor(roomID)

	sh.mu.RLock()
	ch, ok := sh.channels[roomID]
	sh.mu.RUnlock()
	if !ok {
		return 0
	}

	ch.order.Lock()
	defer ch.order.Unlock()

	sh.mu.RLock()
	targets := make([]Subscriber, 0, len(ch.subs))
	for id, sub := range ch.subs {
		if id != exclude {
			targets = append(targets, sub)
		}
	}
	sh.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.Deliver(data) {
			delivered++
		} else {
			r.logger.Debug().
				Str("room_id", roomID).
				Str("session_id", sub.SessionID()).
				Msg("Delivery skipped for closed or slow session.")
		}
	}
	return delivered
}

// Subscribers returns the number of sessions subscribed to roomID.
func (r *Router) Subscribers(roomID string) int {
	sh := r.shardFor(roomID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if ch, ok := sh.channels[roomID]; ok {
		return len(ch.subs)
	}
	return 0
}

// Rooms returns the number of rooms with at least one subscriber.
func (r *Router) Rooms() int {
	total := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		total += len(sh.channels)
		sh.mu.RUnlock()
	}
	return total
}
