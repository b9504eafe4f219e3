package sqlite

import (
	"database/sql"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// ─── Reward Log ─────────────────────────────────────────────────────────────
// Append-only: triggers reject UPDATE and DELETE on reward_log.

// InsertLogEntry appends one granted reward.
func (s *Store) InsertLogEntry(e domain.LogEntry) (int64, error) {
	result, err := s.q.Exec(
		`INSERT INTO reward_log (user_id, quest_id, timestamp, type, amount, rarity, source, item_id, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, nullStr(e.QuestID), e.Timestamp.Unix(), string(e.Type), e.Amount,
		string(e.Rarity), e.Source, nullStr(e.ItemID), e.Confidence,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LogEntries returns the user's most recent entries, newest first.
func (s *Store) LogEntries(userID string, limit int) ([]domain.LogEntry, error) {
	rows, err := s.q.Query(
		`SELECT id, user_id, quest_id, timestamp, type, amount, rarity, source, item_id, confidence
		 FROM reward_log WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		var ts int64
		var questID, itemID sql.NullString
		err := rows.Scan(&e.ID, &e.UserID, &questID, &ts, &e.Type,
			&e.Amount, &e.Rarity, &e.Source, &itemID, &e.Confidence)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		e.QuestID = questID.String
		e.ItemID = itemID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RewardTotal sums the amounts granted to the user for one reward type.
func (s *Store) RewardTotal(userID string, typ domain.RewardType) (int64, error) {
	var total sql.NullInt64
	err := s.q.QueryRow(
		`SELECT SUM(amount) FROM reward_log WHERE user_id = ? AND type = ?`,
		userID, string(typ),
	).Scan(&total)
	return total.Int64, err
}
