package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Pending Proofs ─────────────────────────────────────────────────────────

// InsertPendingProof parks the rewards of a spot-checked completion.
func (s *Store) InsertPendingProof(p domain.PendingProof) error {
	raw, err := json.Marshal(p.Rewards)
	if err != nil {
		return fmt.Errorf("encode proof rewards: %w", err)
	}
	_, err = s.q.Exec(
		`INSERT INTO pending_proofs (id, user_id, quest_id, rewards, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.QuestID, string(raw), p.Confidence, p.CreatedAt.Unix(),
	)
	return err
}

// GetPendingProof retrieves a pending proof owned by userID.
func (s *Store) GetPendingProof(userID, id string) (*domain.PendingProof, error) {
	row := s.q.QueryRow(
		`SELECT id, user_id, quest_id, rewards, confidence, created_at
		 FROM pending_proofs WHERE user_id = ? AND id = ?`, userID, id,
	)
	return scanProof(row)
}

// ListPendingProofs returns the user's unresolved spot checks, oldest first.
func (s *Store) ListPendingProofs(userID string) ([]domain.PendingProof, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, quest_id, rewards, confidence, created_at
		 FROM pending_proofs WHERE user_id = ? ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []domain.PendingProof
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, *p)
	}
	return proofs, rows.Err()
}

// DeletePendingProof resolves a spot check.
func (s *Store) DeletePendingProof(userID, id string) error {
	result, err := s.q.Exec(`DELETE FROM pending_proofs WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrProofNotFound
	}
	return nil
}

func scanProof(sc scanner) (*domain.PendingProof, error) {
	var p domain.PendingProof
	var raw string
	var createdAt int64

	err := sc.Scan(&p.ID, &p.UserID, &p.QuestID, &raw, &p.Confidence, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProofNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &p.Rewards); err != nil {
		return nil, fmt.Errorf("decode proof %s: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}
