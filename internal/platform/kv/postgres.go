package kv

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// PostgresStore mirrors SQLiteStore against a Postgres state table. It is
// the driver to reach for when the clinic data should outlive the host
// machine.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *PostgresStore) Save(key string, value []byte) error {
	if _, err := s.db.Exec(
		`INSERT INTO state (key, payload) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload`,
		key, value,
	); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
