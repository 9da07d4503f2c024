/*
Package user contains the identity data structures consumed by the chat core.

Accounts are owned by an external auth service. The core receives a verified
Principal for each connection and resolves user ids into display attributes
through a Lookup when enriching messages.
*/
package user

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Lookup when the user id is unknown.
var ErrNotFound = errors.New("user not found")

// Principal is the verified identity bound to a session or request.
type Principal struct {
	// ID is the stable user identifier.
	ID string `json:"id"`

	// Role is the account role, e.g. "user" or "admin".
	Role string `json:"role"`
}

// Display holds the minimal attributes shown next to a message.
// Fields use JSON tags for serialization in socket events.
type Display struct {
	ID string `json:"id"`

	// Name is the display name; empty when the lookup missed.
	Name string `json:"name,omitempty"`

	// Avatar is a reference to the avatar image: an object key or an absolute URL.
	Avatar string `json:"avatar,omitempty"`
}

// Lookup resolves a user id into display attributes.
type Lookup interface {
	ResolveDisplay(ctx context.Context, userID string) (Display, error)
}

// MemoryLookup is an in-process Lookup, used by the memory storage driver and tests.
type MemoryLookup struct {
	mu    sync.RWMutex
	users map[string]Display
}

// NewMemoryLookup returns a MemoryLookup seeded with users.
func NewMemoryLookup(users ...Display) *MemoryLookup {
	m := &MemoryLookup{users: make(map[string]Display, len(users))}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// Put inserts or replaces the display attributes for d.ID.
func (m *MemoryLookup) Put(d Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[d.ID] = d
}

// ResolveDisplay implements Lookup.
func (m *MemoryLookup) ResolveDisplay(ctx context.Context, userID string) (Display, error) {
	if err := ctx.Err(); err != nil {
		return Display{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.users[userID]
	if !ok {
		return Display{}, ErrNotFound
	}
	return d, nil
}
