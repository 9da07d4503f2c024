package room

import (
	"context"
	"slices"
	"sync"
	"time"

	"chatcore/internal/pkg/randx"
)

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	private map[string]string // pair key -> room id
	now     func() time.Time
}

// NewMemoryDirectory creates an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms:   make(map[string]*Room),
		private: make(map[string]string),
		now:     time.Now,
	}
}

// Create implements Directory.
func (d *MemoryDirectory) Create(ctx context.Context, r *Room) (*Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := normalizeNew(r, randx.RoomID(), d.now().UTC())
	d.rooms[stored.ID] = stored
	return stored.Clone(), nil
}

// Get implements Directory.
func (d *MemoryDirectory) Get(ctx context.Context, id string) (*Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// GetMembers implements Directory.
func (d *MemoryDirectory) GetMembers(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(r.Members), nil
}

// FindOrCreatePrivate implements Directory. Lookup and insert happen under one lock.
func (d *MemoryDirectory) FindOrCreatePrivate(ctx context.Context, a, b string) (*Room, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	key := PairKey(a, b)

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.private[key]; ok {
		return d.rooms[id].Clone(), false, nil
	}

	stored := normalizeNew(newPrivate(a, b), randx.RoomID(), d.now().UTC())
	d.rooms[stored.ID] = stored
	d.private[key] = stored.ID
	return stored.Clone(), true, nil
}

// Update implements Directory.
func (d *MemoryDirectory) Update(ctx context.Context, id string, fn func(r *Room) error) (*Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	next.ID = current.ID
	next.CreatedBy = current.CreatedBy
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = d.now().UTC()
	next.Version = current.Version + 1
	d.rooms[id] = next

	return next.Clone(), nil
}

// UpdateLastMessage implements Directory.
func (d *MemoryDirectory) UpdateLastMessage(ctx context.Context, id string, last LastMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[id]
	if !ok {
		return ErrNotFound
	}
	applyLastMessage(r, last)
	return nil
}

func applyLastMessage(r *Room, last LastMessage) {
	r.LastMessage = last
	r.MessagesCount++
	if last.CreatedAt != nil {
		r.LastActiveAt = *last.CreatedAt
	}
}
