package sqlite

import (
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Badges ─────────────────────────────────────────────────────────────────

// UnlockBadge records a badge as unlocked.
// Returns false if already unlocked (idempotent).
func (s *Store) UnlockBadge(userID, id string, at time.Time) (bool, error) {
	result, err := s.q.Exec(
		`INSERT OR IGNORE INTO badges (user_id, id, unlocked_at) VALUES (?, ?, ?)`,
		userID, id, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil // true = newly unlocked
}

// ListBadges returns the user's unlocked badges, newest first.
func (s *Store) ListBadges(userID string) ([]domain.UnlockedBadge, error) {
	rows, err := s.q.Query(
		`SELECT user_id, id, unlocked_at FROM badges WHERE user_id = ? ORDER BY unlocked_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []domain.UnlockedBadge
	for rows.Next() {
		var b domain.UnlockedBadge
		var unlockedAt int64
		if err := rows.Scan(&b.UserID, &b.ID, &unlockedAt); err != nil {
			return nil, err
		}
		b.UnlockedAt = time.Unix(unlockedAt, 0)
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// UnlockedBadgeSet returns the IDs of the user's badges as a set.
func (s *Store) UnlockedBadgeSet(userID string) (map[string]bool, error) {
	badges, err := s.ListBadges(userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(badges))
	for _, b := range badges {
		set[b.ID] = true
	}
	return set, nil
}
