package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrGameNotFound = errors.New("game not found")

// GameEntry is one row of the games table.
type GameEntry struct {
	GameID     string
	StartedAt  time.Time
	Width      int32
	Height     int32
	Turns      int32
	MyScore    int32
	OppScore   int32
	RecordPath string
	FinishedAt time.Time // zero while the game is running or if it was killed
}

// Index is a sqlite table of played games. It is used from the game loop
// only, so writes are synchronous.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=2000;",
		`CREATE TABLE IF NOT EXISTS games (
			game_id     TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			width       INTEGER NOT NULL,
			height      INTEGER NOT NULL,
			turns       INTEGER NOT NULL DEFAULT 0,
			my_score    INTEGER NOT NULL DEFAULT 0,
			opp_score   INTEGER NOT NULL DEFAULT 0,
			record_path TEXT NOT NULL DEFAULT '',
			finished_at INTEGER NOT NULL DEFAULT 0
		);`,
		"CREATE INDEX IF NOT EXISTS games_started ON games(started_at);",
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init index: %w", err)
		}
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

func (x *Index) StartGame(ctx context.Context, g GameEntry) error {
	_, err := x.db.ExecContext(ctx,
		`INSERT INTO games (game_id, started_at, width, height, record_path) VALUES (?, ?, ?, ?, ?)`,
		g.GameID, g.StartedAt.UnixNano(), g.Width, g.Height, g.RecordPath)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.GameID, err)
	}
	return nil
}

// RecordTurn stores progress so a game killed by the referee still shows
// how far it got.
func (x *Index) RecordTurn(ctx context.Context, gameID string, turn, myScore, oppScore int32) error {
	return x.update(ctx, gameID,
		`UPDATE games SET turns = ?, my_score = ?, opp_score = ? WHERE game_id = ?`,
		turn, myScore, oppScore, gameID)
}

// FinishGame stamps the end of a game. recordPath may be empty when no turn
// was recorded.
func (x *Index) FinishGame(ctx context.Context, gameID, recordPath string, at time.Time) error {
	return x.update(ctx, gameID,
		`UPDATE games SET record_path = ?, finished_at = ? WHERE game_id = ?`,
		recordPath, at.UnixNano(), gameID)
}

func (x *Index) update(ctx context.Context, gameID, query string, args ...any) error {
	res, err := x.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update game %s: %w", gameID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update game %s: %w", gameID, ErrGameNotFound)
	}
	return nil
}

const gameColumns = `game_id, started_at, width, height, turns, my_score, opp_score, record_path, finished_at`

func (x *Index) Game(ctx context.Context, gameID string) (GameEntry, error) {
	row := x.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE game_id = ?`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GameEntry{}, fmt.Errorf("%s: %w", gameID, ErrGameNotFound)
	}
	return g, err
}

// ListGames returns the most recently started games first.
func (x *Index) ListGames(ctx context.Context, limit int) ([]GameEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := x.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []GameEntry
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (GameEntry, error) {
	var (
		g                 GameEntry
		started, finished int64
	)
	if err := s.Scan(&g.GameID, &started, &g.Width, &g.Height, &g.Turns, &g.MyScore, &g.OppScore, &g.RecordPath, &finished); err != nil {
		return GameEntry{}, err
	}
	g.StartedAt = time.Unix(0, started)
	if finished != 0 {
		g.FinishedAt = time.Unix(0, finished)
	}
	return g, nil
}
