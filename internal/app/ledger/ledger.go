// Package ledger writes and reads the append-only reward log.
// Every credited reward becomes exactly one log row; rows are never
// updated or deleted, so balances can always be rebuilt from the log.
package ledger

import (
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// Appender is the write side of the log. *sqlite.Store satisfies it, both
// directly and inside a transaction.
type Appender interface {
	InsertLogEntry(e domain.LogEntry) (int64, error)
}

// Grant describes one batch of rewards credited together.
type Grant struct {
	UserID     string
	QuestID    string // empty for chest and badge rewards
	At         time.Time
	Confidence float64
	Rewards    []domain.Reward
}

// Record appends one row per reward in g.
func Record(w Appender, g Grant) error {
	if g.UserID == "" {
		return fmt.Errorf("record rewards: %w", &domain.InvalidInputError{Field: "user_id", Reason: "is required"})
	}
	for _, r := range g.Rewards {
		if r.Amount < 1 {
			return fmt.Errorf("record rewards: %w", &domain.InvalidInputError{
				Field: "amount", Reason: fmt.Sprintf("must be at least 1, got %d", r.Amount),
			})
		}
		_, err := w.InsertLogEntry(domain.LogEntry{
			UserID:     g.UserID,
			QuestID:    g.QuestID,
			Timestamp:  g.At,
			Type:       r.Type,
			Amount:     r.Amount,
			Rarity:     r.Rarity,
			Source:     r.Source,
			ItemID:     r.ItemID,
			Confidence: g.Confidence,
		})
		if err != nil {
			return fmt.Errorf("append %s reward: %w", r.Type, err)
		}
	}
	return nil
}

// Totals are lifetime sums per reward type.
type Totals struct {
	XP      int64 `json:"xp"`
	Gold    int64 `json:"gold"`
	Gems    int64 `json:"gems"`
	Tickets int64 `json:"tickets"`
}

// Service is the read side of the log.
type Service struct {
	db *sqlite.DB
}

// NewService creates a ledger service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Record appends rewards outside any wider transaction.
func (s *Service) Record(g Grant) error {
	return s.db.InTx(func(tx *sqlite.Store) error {
		return Record(tx, g)
	})
}

// History returns the user's recent log entries, newest first.
func (s *Service) History(userID string, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.db.LogEntries(userID, limit)
}

// Totals rebuilds the lifetime earnings of a user from the log.
func (s *Service) Totals(userID string) (Totals, error) {
	var t Totals
	for typ, dst := range map[domain.RewardType]*int64{
		domain.RewardXP:      &t.XP,
		domain.RewardGold:    &t.Gold,
		domain.RewardGems:    &t.Gems,
		domain.RewardTickets: &t.Tickets,
	} {
		sum, err := s.db.RewardTotal(userID, typ)
		if err != nil {
			return Totals{}, fmt.Errorf("total %s: %w", typ, err)
		}
		*dst = sum
	}
	return t, nil
}

// CompletionsBetween counts the user's completions in [from, to).
func (s *Service) CompletionsBetween(userID string, from, to time.Time) (int, error) {
	return s.db.CompletionCount(userID, from, to)
}
