// Package sqlite provides SQLite-based persistent storage for SideQuest.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store holds the repository methods. It runs either directly on the
// database or inside a transaction handed out by InTx.
type Store struct {
	q querier
}

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	*Store
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{Store: &Store{q: db}, db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// InTx runs fn inside a transaction. The transaction commits if fn
// returns nil and rolls back otherwise, so a CompletionResult is either
// persisted whole or not at all.
func (d *DB) InTx(fn func(*Store) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Users own one progression snapshot, stored as JSON.
		`CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			level       INTEGER NOT NULL DEFAULT 1,
			trust_score REAL NOT NULL DEFAULT 50,
			snapshot    TEXT NOT NULL,
			decay_week  TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS quests (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title             TEXT NOT NULL,
			difficulty        TEXT NOT NULL,
			category          TEXT NOT NULL DEFAULT '',
			signals           TEXT NOT NULL DEFAULT '',
			cooldown_hours    INTEGER NOT NULL DEFAULT 0,
			base_xp           INTEGER NOT NULL DEFAULT 0,
			base_gold         INTEGER NOT NULL DEFAULT 0,
			status            TEXT NOT NULL,
			last_completed_at INTEGER,
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user ON quests(user_id, status)`,

		`CREATE TABLE IF NOT EXISTS chests (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind       TEXT NOT NULL,
			tier       TEXT NOT NULL,
			rewards    TEXT NOT NULL,
			opened     BOOLEAN DEFAULT 0,
			created_at INTEGER NOT NULL,
			opened_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chests_user ON chests(user_id, opened)`,

		// One row per accepted completion, including spot-checked ones.
		`CREATE TABLE IF NOT EXISTS completions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        TEXT NOT NULL,
			quest_id       TEXT NOT NULL,
			completed_at   INTEGER NOT NULL,
			confidence     REAL NOT NULL,
			proof_required BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completions_user_ts ON completions(user_id, completed_at)`,

		// Append-only reward log: one row per granted reward.
		`CREATE TABLE IF NOT EXISTS reward_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			quest_id   TEXT,
			timestamp  INTEGER NOT NULL,
			type       TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			rarity     TEXT NOT NULL,
			source     TEXT NOT NULL,
			item_id    TEXT,
			confidence REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reward_log_user_ts ON reward_log(user_id, timestamp)`,
		`CREATE TRIGGER IF NOT EXISTS reward_log_no_update BEFORE UPDATE ON reward_log
		 BEGIN SELECT RAISE(ABORT, 'reward_log is append-only'); END`,
		`CREATE TRIGGER IF NOT EXISTS reward_log_no_delete BEFORE DELETE ON reward_log
		 BEGIN SELECT RAISE(ABORT, 'reward_log is append-only'); END`,

		// Rewards parked behind a spot check.
		`CREATE TABLE IF NOT EXISTS pending_proofs (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			quest_id   TEXT NOT NULL,
			rewards    TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_proofs_user ON pending_proofs(user_id)`,

		`CREATE TABLE IF NOT EXISTS badges (
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			id          TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullableUnix(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(n.Int64, 0)
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
