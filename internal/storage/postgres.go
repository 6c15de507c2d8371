// Package storage provides the optional Postgres archive behind the in-memory
// state. The in-memory maps stay authoritative; the database only keeps
// durable copies of users and completed matches.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wordbound/wordbound-server/internal"
)

const writeTimeout = 5 * time.Second

type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, connString string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (pa *PostgresArchive) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	discord_id  TEXT,
	username    TEXT NOT NULL,
	coins       INTEGER NOT NULL,
	gems        INTEGER NOT NULL,
	cosmetics   JSONB NOT NULL,
	stats       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
	id           TEXT PRIMARY KEY,
	lobby_id     TEXT,
	status       TEXT NOT NULL,
	grid         JSONB,
	words_found  JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS match_players (
	match_id    TEXT NOT NULL REFERENCES matches(id),
	user_id     TEXT NOT NULL,
	username    TEXT NOT NULL,
	score       INTEGER NOT NULL,
	words_found INTEGER NOT NULL,
	rank        INTEGER,
	PRIMARY KEY (match_id, user_id)
);`
	if _, err := pa.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (pa *PostgresArchive) ArchiveUser(u internal.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	cosmetics, err := json.Marshal(u.Cosmetics)
	if err != nil {
		return fmt.Errorf("marshal cosmetics: %w", err)
	}
	stats, err := json.Marshal(u.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	const query = `
INSERT INTO users (id, discord_id, username, coins, gems, cosmetics, stats, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	discord_id = EXCLUDED.discord_id,
	username   = EXCLUDED.username,
	coins      = EXCLUDED.coins,
	gems       = EXCLUDED.gems,
	cosmetics  = EXCLUDED.cosmetics,
	stats      = EXCLUDED.stats,
	updated_at = EXCLUDED.updated_at`

	_, err = pa.pool.Exec(ctx, query,
		u.ID, u.DiscordID, u.Username, u.Coins, u.Gems, cosmetics, stats, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("archive user %s: %w", u.ID, err)
	}
	return nil
}

func (pa *PostgresArchive) ArchiveMatch(m internal.Match) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	grid, err := json.Marshal(m.Grid)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}
	words, err := json.Marshal(m.WordsFound)
	if err != nil {
		return fmt.Errorf("marshal words: %w", err)
	}

	tx, err := pa.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const matchQuery = `
INSERT INTO matches (id, lobby_id, status, grid, words_found, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	status       = EXCLUDED.status,
	grid         = EXCLUDED.grid,
	words_found  = EXCLUDED.words_found,
	completed_at = EXCLUDED.completed_at`

	if _, err := tx.Exec(ctx, matchQuery,
		m.ID, m.LobbyID, m.Status, grid, words, m.CreatedAt, m.CompletedAt); err != nil {
		return fmt.Errorf("archive match %s: %w", m.ID, err)
	}

	const playerQuery = `
INSERT INTO match_players (match_id, user_id, username, score, words_found, rank)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (match_id, user_id) DO UPDATE SET
	score       = EXCLUDED.score,
	words_found = EXCLUDED.words_found,
	rank        = EXCLUDED.rank`

	for _, p := range m.Players {
		if _, err := tx.Exec(ctx, playerQuery,
			m.ID, p.UserID, p.Username, p.Score, p.WordsFound, p.Rank); err != nil {
			return fmt.Errorf("archive match %s player %s: %w", m.ID, p.UserID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit match %s: %w", m.ID, err)
	}
	return nil
}

func (pa *PostgresArchive) Close() {
	pa.pool.Close()
}
