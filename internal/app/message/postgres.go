package message

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatcore/internal/pkg/randx"
)

// PostgresStore persists messages in the messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store over pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append implements Store. The database clock assigns created_at.
func (s *PostgresStore) Append(ctx context.Context, msg NewMessage) (*Message, error) {
	msg, err := msg.Normalize()
	if err != nil {
		return nil, err
	}

	record := Message{
		ID:       randx.MessageID(),
		Sender:   msg.Sender,
		ChatRoom: msg.ChatRoom,
		Content:  msg.Content,
		Type:     msg.Type,
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO messages (id, sender, chat_room, content, type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING is_liked, created_at`,
		record.ID, record.Sender, record.ChatRoom, record.Content, record.Type,
	).Scan(&record.IsLiked, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message into room %s: %w", msg.ChatRoom, err)
	}

	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

// ListByRoom implements Store.
func (s *PostgresStore) ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]Message, error) {
	if before.IsZero() {
		before = time.Now().Add(time.Hour)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, sender, chat_room, content, type, is_liked, created_at
		 FROM messages
		 WHERE chat_room = $1 AND created_at < $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		roomID, before, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages of room %s: %w", roomID, err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.Sender, &m.ChatRoom, &m.Content, &m.Type, &m.IsLiked, &m.CreatedAt)
		m.CreatedAt = m.CreatedAt.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages of room %s: %w", roomID, err)
	}

	return msgs, nil
}
