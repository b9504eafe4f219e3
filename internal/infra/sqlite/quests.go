package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Quests ─────────────────────────────────────────────────────────────────

const questColumns = `id, user_id, title, difficulty, category, signals, cooldown_hours,
	base_xp, base_gold, status, last_completed_at, created_at`

// InsertQuest creates a new quest.
func (s *Store) InsertQuest(q domain.Quest) error {
	_, err := s.q.Exec(
		`INSERT INTO quests (`+questColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Title, string(q.Difficulty), q.Category, joinSignals(q.Signals),
		q.CooldownHours, q.BaseXP, q.BaseGold, string(q.Status),
		nullableUnix(q.LastCompletedAt), q.CreatedAt.Unix(),
	)
	return err
}

// GetQuest retrieves a quest owned by userID.
func (s *Store) GetQuest(userID, id string) (*domain.Quest, error) {
	row := s.q.QueryRow(
		`SELECT `+questColumns+` FROM quests WHERE user_id = ? AND id = ?`, userID, id,
	)
	return scanQuest(row)
}

// ListQuests returns the user's quests. An empty status lists all of them.
func (s *Store) ListQuests(userID string, status domain.QuestStatus) ([]domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// UpdateQuestCompletion stores the status and completion time after a
// completion.
func (s *Store) UpdateQuestCompletion(q domain.Quest) error {
	result, err := s.q.Exec(
		`UPDATE quests SET status = ?, last_completed_at = ? WHERE user_id = ? AND id = ?`,
		string(q.Status), nullableUnix(q.LastCompletedAt), q.UserID, q.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

// ArchiveQuest retires a quest so it can no longer be completed.
func (s *Store) ArchiveQuest(userID, id string) error {
	result, err := s.q.Exec(
		`UPDATE quests SET status = ? WHERE user_id = ? AND id = ?`,
		string(domain.QuestArchived), userID, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

func scanQuest(sc scanner) (*domain.Quest, error) {
	var q domain.Quest
	var difficulty, signals, status string
	var lastCompleted sql.NullInt64
	var createdAt int64

	err := sc.Scan(&q.ID, &q.UserID, &q.Title, &difficulty, &q.Category, &signals,
		&q.CooldownHours, &q.BaseXP, &q.BaseGold, &status, &lastCompleted, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuestNotFound
	}
	if err != nil {
		return nil, err
	}

	q.Difficulty = domain.Difficulty(difficulty)
	q.Status = domain.QuestStatus(status)
	q.Signals = splitSignals(signals)
	q.LastCompletedAt = fromNullableUnix(lastCompleted)
	q.CreatedAt = time.Unix(createdAt, 0)
	return &q, nil
}

func joinSignals(signals []domain.VerificationSignal) string {
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func splitSignals(s string) []domain.VerificationSignal {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]domain.VerificationSignal, len(parts))
	for i, p := range parts {
		out[i] = domain.VerificationSignal(p)
	}
	return out
}
