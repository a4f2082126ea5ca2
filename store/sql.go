package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// SQL stores values in a postgres key/value table.
type SQL struct {
	db *sqlx.DB
}

func NewSQL(ctx context.Context, databaseURL string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	s := NewSQLFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLFromDB(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTable)
	return err
}

const createTable = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        text PRIMARY KEY,
    value      bytea NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
)`

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, getValue, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

const getValue = `SELECT value FROM kv_store WHERE key = $1`

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, setValue, key, value)
	return err
}

const setValue = `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`

func (s *SQL) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, removeValue, key)
	return err
}

const removeValue = `DELETE FROM kv_store WHERE key = $1`

func (s *SQL) Close() error {
	return s.db.Close()
}
