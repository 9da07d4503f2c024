/*
Package message implements the Message Store: a durable, append-only record of
chat messages keyed by room.

Records are created only by the ingestion pipeline. The store assigns the
identifier and creation timestamp; content is never rewritten.
*/
package message

import (
	"context"
	"errors"
	"time"
)

// DefaultType is the type tag applied when a message carries none.
const DefaultType = "text"

// ErrInvalid is returned by Append for a record missing a required field.
var ErrInvalid = errors.New("message is missing sender, room or content")

// Message is one persisted chat message.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	ChatRoom  string    `json:"chatRoom"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	IsLiked   bool      `json:"isLiked"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage holds the caller-supplied fields of a message to append.
type NewMessage struct {
	Sender   string
	ChatRoom string
	Content  string
	Type     string
}

// Normalize checks required fields and applies the default type.
func (n NewMessage) Normalize() (NewMessage, error) {
	if n.Sender == "" || n.ChatRoom == "" || n.Content == "" {
		return n, ErrInvalid
	}
	if n.Type == "" {
		n.Type = DefaultType
	}
	return n, nil
}

// Store is the Message Store contract.
type Store interface {
	// Append persists a new message and returns it with server-assigned id and timestamp.
	Append(ctx context.Context, msg NewMessage) (*Message, error)

	// ListByRoom returns up to limit messages of roomID created strictly before before,
	// newest first. A zero before means "now".
	ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]Message, error)
}
