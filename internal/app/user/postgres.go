package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLookup reads display attributes from the users table maintained by the account service.
type PostgresLookup struct {
	pool *pgxpool.Pool
}

// NewPostgresLookup creates a Lookup over pool.
func NewPostgresLookup(pool *pgxpool.Pool) *PostgresLookup {
	return &PostgresLookup{pool: pool}
}

// ResolveDisplay implements Lookup.
func (l *PostgresLookup) ResolveDisplay(ctx context.Context, userID string) (Display, error) {
	var d Display

	err := l.pool.QueryRow(ctx,
		`SELECT id, name, avatar_key FROM users WHERE id = $1`,
		userID,
	).Scan(&d.ID, &d.Name, &d.Avatar)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Display{}, ErrNotFound
		}
		return Display{}, fmt.Errorf("resolve display for %s: %w", userID, err)
	}

	return d, nil
}

// Upsert writes display attributes, used by seeding and integration tests.
func (l *PostgresLookup) Upsert(ctx context.Context, d Display) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO users (id, name, avatar_key) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, avatar_key = EXCLUDED.avatar_key`,
		d.ID, d.Name, d.Avatar,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", d.ID, err)
	}
	return nil
}
