/*
Package room implements the Room Directory: room records, membership and
moderation sets, and the denormalized last-message snapshot.

Every mutation is a single atomic read-modify-write of one room record, so
concurrent admin operations never lose each other's updates.
*/
package room

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"
)

// Type is the visibility class of a room.
type Type string

const (
	TypePublic    Type = "public"
	TypePrivate   Type = "private"
	TypeProtected Type = "protected"
)

// Valid reports whether t is a known room type.
func (t Type) Valid() bool {
	switch t {
	case TypePublic, TypePrivate, TypeProtected:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when the room id is unknown.
	ErrNotFound = errors.New("room not found")

	// ErrConflict is returned when an update kept losing to concurrent writers.
	ErrConflict = errors.New("room update conflict")
)

// LastMessage is the denormalized snapshot of the newest message in a room.
type LastMessage struct {
	Text      string     `json:"text"`
	Sender    string     `json:"sender"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Room is the durable record of a chat room.
type Room struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Avatar        string      `json:"avatar,omitempty"`
	IsGroup       bool        `json:"isGroup"`
	Type          Type        `json:"type"`
	Members       []string    `json:"members"`
	Admins        []string    `json:"admins"`
	CreatedBy     string      `json:"createdBy"`
	LastMessage   LastMessage `json:"lastMessage"`
	LastActiveAt  time.Time   `json:"lastActiveAt"`
	MutedUsers    []string    `json:"mutedUsers"`
	BannedUsers   []string    `json:"bannedUsers"`
	MessagesCount int64       `json:"messagesCount"`
	IsArchived    bool        `json:"isArchived"`
	Tags          []string    `json:"tags"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	// Version increases by one on every write.
	Version int64 `json:"-"`
}

// IsMember reports whether userID is in the member set.
func (r *Room) IsMember(userID string) bool { return slices.Contains(r.Members, userID) }

// IsAdmin reports whether userID is in the admin set.
func (r *Room) IsAdmin(userID string) bool { return slices.Contains(r.Admins, userID) }

// IsMuted reports whether userID may not send in the room.
func (r *Room) IsMuted(userID string) bool { return slices.Contains(r.MutedUsers, userID) }

// IsBanned reports whether userID may not join the room.
func (r *Room) IsBanned(userID string) bool { return slices.Contains(r.BannedUsers, userID) }

// Clone returns a deep copy of r.
func (r *Room) Clone() *Room {
	c := *r
	c.Members = slices.Clone(r.Members)
	c.Admins = slices.Clone(r.Admins)
	c.MutedUsers = slices.Clone(r.MutedUsers)
	c.BannedUsers = slices.Clone(r.BannedUsers)
	c.Tags = slices.Clone(r.Tags)
	if r.LastMessage.CreatedAt != nil {
		at := *r.LastMessage.CreatedAt
		c.LastMessage.CreatedAt = &at
	}
	return &c
}

// Directory is the Room Directory contract.
type Directory interface {
	// Create stores a new room, assigning its id and timestamps.
	Create(ctx context.Context, r *Room) (*Room, error)

	// Get returns the room with id.
	Get(ctx context.Context, id string) (*Room, error)

	// GetMembers returns the member ids of the room with id.
	GetMembers(ctx context.Context, id string) ([]string, error)

	// FindOrCreatePrivate returns the unique 1:1 room of the unordered pair {a, b},
	// creating it when absent. created reports whether this call created it.
	FindOrCreatePrivate(ctx context.Context, a, b string) (r *Room, created bool, err error)

	// Update applies fn to the current record and stores the result atomically.
	// An error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(r *Room) error) (*Room, error)

	// UpdateLastMessage refreshes the last-message snapshot and increments messagesCount.
	// It leaves Version untouched: Update never writes these fields.
	UpdateLastMessage(ctx context.Context, id string, last LastMessage) error
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// uniq returns ids in first-seen order without duplicates or empty entries.
func uniq(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func addUnique(set []string, ids ...string) []string {
	for _, id := range ids {
		if id != "" && !slices.Contains(set, id) {
			set = append(set, id)
		}
	}
	return set
}

func remove(set []string, id string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == id })
}

// normalizeNew fills defaults shared by every Directory implementation.
func normalizeNew(r *Room, id string, now time.Time) *Room {
	c := r.Clone()
	c.ID = id
	c.Members = uniq(c.Members)
	c.Admins = uniq(c.Admins)
	c.MutedUsers = uniq(c.MutedUsers)
	c.BannedUsers = uniq(c.BannedUsers)
	c.Tags = uniq(c.Tags)
	if c.Type == "" {
		c.Type = TypePrivate
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	c.LastActiveAt = now
	c.Version = 1
	return c
}

func newPrivate(a, b string) *Room {
	return &Room{
		Type:      TypePrivate,
		Members:   []string{a, b},
		CreatedBy: a,
	}
}
