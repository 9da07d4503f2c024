package room

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatcore/internal/app/db"
	"chatcore/internal/pkg/randx"
)

// maxUpdateAttempts bounds the optimistic retry loop of PostgresDirectory.Update.
const maxUpdateAttempts = 8

const roomColumns = `id, name, description, avatar, is_group, type, members, admins, created_by,
	last_message_text, last_message_sender, last_message_at, last_active_at,
	muted_users, banned_users, messages_count, is_archived, tags, created_at, updated_at, version`

// PostgresDirectory stores rooms in the chat_rooms table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a Directory over pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	var roomType string
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.Avatar, &r.IsGroup, &roomType, &r.Members, &r.Admins, &r.CreatedBy,
		&r.LastMessage.Text, &r.LastMessage.Sender, &r.LastMessage.CreatedAt, &r.LastActiveAt,
		&r.MutedUsers, &r.BannedUsers, &r.MessagesCount, &r.IsArchived, &r.Tags, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Type = Type(roomType)
	return &r, nil
}

func (d *PostgresDirectory) insert(ctx context.Context, r *Room, pairKey *string) (*Room, error) {
	row := d.pool.QueryRow(ctx,
		`INSERT INTO chat_rooms (id, name, description, avatar, is_group, type, members, admins, created_by,
			muted_users, banned_users, tags, private_pair_key, created_at, updated_at, last_active_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14, $14, 1)
		 RETURNING `+roomColumns,
		r.ID, r.Name, r.Description, r.Avatar, r.IsGroup, string(r.Type), r.Members, r.Admins, r.CreatedBy,
		r.MutedUsers, r.BannedUsers, r.Tags, pairKey, r.CreatedAt,
	)
	return scanRoom(row)
}

// Create implements Directory.
func (d *PostgresDirectory) Create(ctx context.Context, r *Room) (*Room, error) {
	stored, err := d.insert(ctx, normalizeNew(r, randx.RoomID(), time.Now().UTC()), nil)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return stored, nil
}

// Get implements Directory.
func (d *PostgresDirectory) Get(ctx context.Context, id string) (*Room, error) {
	r, err := scanRoom(d.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE id = $1`, id))
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	return r, err
}

// GetMembers implements Directory.
func (d *PostgresDirectory) GetMembers(ctx context.Context, id string) ([]string, error) {
	var members []string
	err := d.pool.QueryRow(ctx, `SELECT members FROM chat_rooms WHERE id = $1`, id).Scan(&members)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get members of room %s: %w", id, err)
	}
	return members, nil
}

// FindOrCreatePrivate implements Directory. The unique private_pair_key column
// settles concurrent creators: the loser refetches the winner's row.
func (d *PostgresDirectory) FindOrCreatePrivate(ctx context.Context, a, b string) (*Room, bool, error) {
	key := PairKey(a, b)

	existing, err := d.getByPair(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if err != ErrNotFound {
		return nil, false, err
	}

	created, err := d.insert(ctx, normalizeNew(newPrivate(a, b), randx.RoomID(), time.Now().UTC()), &key)
	if err == nil {
		return created, true, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, false, fmt.Errorf("create private room %s: %w", key, err)
	}

	existing, err = d.getByPair(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (d *PostgresDirectory) getByPair(ctx context.Context, key string) (*Room, error) {
	r, err := scanRoom(d.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms WHERE private_pair_key = $1`, key))
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("find private room %s: %w", key, err)
	}
	return r, err
}

// Update implements Directory with optimistic concurrency on the version column.
func (d *PostgresDirectory) Update(ctx context.Context, id string, fn func(r *Room) error) (*Room, error) {
	for range maxUpdateAttempts {
		current, err := d.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		row := d.pool.QueryRow(ctx,
			`UPDATE chat_rooms SET
				name = $3, description = $4, avatar = $5, type = $6, members = $7, admins = $8,
				muted_users = $9, banned_users = $10, is_archived = $11, tags = $12,
				updated_at = now(), version = version + 1
			 WHERE id = $1 AND version = $2
			 RETURNING `+roomColumns,
			id, current.Version,
			next.Name, next.Description, next.Avatar, string(next.Type), next.Members, next.Admins,
			next.MutedUsers, next.BannedUsers, next.IsArchived, next.Tags,
		)

		updated, err := scanRoom(row)
		if err == nil {
			return updated, nil
		}
		if err != ErrNotFound {
			return nil, fmt.Errorf("update room %s: %w", id, err)
		}
		// version moved underneath us; reread and reapply
	}
	return nil, ErrConflict
}

// UpdateLastMessage implements Directory as a single atomic statement.
func (d *PostgresDirectory) UpdateLastMessage(ctx context.Context, id string, last LastMessage) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE chat_rooms SET
			last_message_text = $2, last_message_sender = $3, last_message_at = $4,
			last_active_at = COALESCE($4, last_active_at),
			messages_count = messages_count + 1
		 WHERE id = $1`,
		id, last.Text, last.Sender, last.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("update last message of room %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
