package sqlite

import (
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Completions ────────────────────────────────────────────────────────────

// InsertCompletion records an accepted completion.
func (s *Store) InsertCompletion(userID, questID string, at time.Time, v domain.Verification) (int64, error) {
	result, err := s.q.Exec(
		`INSERT INTO completions (user_id, quest_id, completed_at, confidence, proof_required)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, questID, at.Unix(), v.Confidence, v.NeedsProof,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompletionCount counts the user's completions in [from, to).
func (s *Store) CompletionCount(userID string, from, to time.Time) (int, error) {
	var count int
	err := s.q.QueryRow(
		`SELECT COUNT(*) FROM completions WHERE user_id = ? AND completed_at >= ? AND completed_at < ?`,
		userID, from.Unix(), to.Unix(),
	).Scan(&count)
	return count, err
}

// VerifiedCompletionCount counts completions whose confidence reached minConfidence.
func (s *Store) VerifiedCompletionCount(userID string, minConfidence float64) (int64, error) {
	var count int64
	err := s.q.QueryRow(
		`SELECT COUNT(*) FROM completions WHERE user_id = ? AND confidence >= ?`,
		userID, minConfidence,
	).Scan(&count)
	return count, err
}
