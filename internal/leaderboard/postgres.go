package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
	username TEXT PRIMARY KEY,
	wins     BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	player1     TEXT NOT NULL,
	player2     TEXT NOT NULL,
	winner      TEXT NOT NULL,
	reason      TEXT NOT NULL,
	moves       INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);`

// PostgresStore persiste o placar numa base Postgres via pgxpool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// EnsureSchema cria as tabelas leaderboard e games se ainda não existirem.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) EnsurePlayer(ctx context.Context, username string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO leaderboard (username, wins) VALUES ($1, 0) ON CONFLICT (username) DO NOTHING",
		username)
	if err != nil {
		return fmt.Errorf("ensure player %q: %w", username, err)
	}
	return nil
}

func (s *PostgresStore) RecordWin(ctx context.Context, username string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO leaderboard (username, wins) VALUES ($1, 1)
		 ON CONFLICT (username) DO UPDATE SET wins = leaderboard.wins + 1`,
		username)
	if err != nil {
		return fmt.Errorf("record win for %q: %w", username, err)
	}
	return nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx,
		"SELECT username, wins FROM leaderboard ORDER BY wins DESC, username ASC LIMIT $1",
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Wins); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) SaveGame(ctx context.Context, rec GameRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO games (id, player1, player2, winner, reason, moves, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Player1, rec.Player2, rec.Winner, rec.Reason, rec.Moves, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
