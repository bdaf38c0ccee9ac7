package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    username TEXT PRIMARY KEY,
    pass_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_username_lower ON accounts(LOWER(username));
`

// PostgresStore implements AccountStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// FindByUsername looks up an account case-insensitively.
func (s *PostgresStore) FindByUsername(ctx context.Context, user string) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT username, pass_hash FROM accounts WHERE LOWER(username) = LOWER($1)`, user)

	var acc Account
	err := row.Scan(&acc.User, &acc.PassHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Insert persists a new account. A failed insert is retried once after a
// pool health check; there is no retry loop beyond that.
func (s *PostgresStore) Insert(ctx context.Context, acc *Account) error {
	err := s.insert(ctx, acc)
	if err == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pingErr := s.pool.Ping(pingCtx); pingErr != nil {
		return err
	}
	return s.insert(ctx, acc)
}

func (s *PostgresStore) insert(ctx context.Context, acc *Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (username, pass_hash) VALUES ($1, $2)`,
		acc.User, acc.PassHash)
	return err
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
