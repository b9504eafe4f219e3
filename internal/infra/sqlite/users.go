package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

// InsertUser creates a user row.
func (s *Store) InsertUser(u domain.User) error {
	snap, err := json.Marshal(u.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.q.Exec(
		`INSERT INTO users (id, name, level, trust_score, snapshot, decay_week, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Snapshot.Level, u.Snapshot.TrustScore, string(snap),
		u.DecayWeek, u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id string) (*domain.User, error) {
	row := s.q.QueryRow(
		`SELECT id, name, snapshot, decay_week, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers() ([]domain.User, error) {
	rows, err := s.q.Query(
		`SELECT id, name, snapshot, decay_week, created_at, updated_at
		 FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SaveSnapshot overwrites the user's progression snapshot and decay marker.
func (s *Store) SaveSnapshot(userID string, snap domain.Snapshot, decayWeek string, at time.Time) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	result, err := s.q.Exec(
		`UPDATE users SET level = ?, trust_score = ?, snapshot = ?, decay_week = ?, updated_at = ?
		 WHERE id = ?`,
		snap.Level, snap.TrustScore, string(raw), decayWeek, at.Unix(), userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(sc scanner) (*domain.User, error) {
	var u domain.User
	var raw string
	var createdAt, updatedAt int64

	err := sc.Scan(&u.ID, &u.Name, &raw, &u.DecayWeek, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &u.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", u.ID, err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}
