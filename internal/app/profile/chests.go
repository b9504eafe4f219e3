package profile

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/ledger"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/metrics"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// ChestOutcome is the persisted result of opening a chest.
type ChestOutcome struct {
	domain.ChestResult
	Badges []domain.BadgeDef `json:"badges,omitempty"`
}

// ListChests returns a user's chests. With unopenedOnly only chests still
// available to open are listed.
func (s *Service) ListChests(userID string, unopenedOnly bool) ([]domain.LootChest, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}
	return s.db.ListChests(userID, unopenedOnly)
}

// OpenChest applies a chest's rewards and removes it from the available list.
func (s *Service) OpenChest(userID, chestID string) (*ChestOutcome, error) {
	var out ChestOutcome
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		chest, err := tx.GetChest(userID, chestID)
		if err != nil {
			return err
		}

		now := s.now()
		if _, err := s.settleDecay(tx, u, now); err != nil {
			return err
		}

		res, err := s.engine.OpenChest(u.Snapshot, *chest, now)
		if err != nil {
			return err
		}
		if err := tx.MarkChestOpened(userID, chestID, now); err != nil {
			return err
		}
		err = ledger.Record(tx, ledger.Grant{
			UserID:  userID,
			At:      now,
			Rewards: append(append([]domain.Reward{}, res.Rewards...), res.BonusRewards...),
		})
		if err != nil {
			return err
		}

		snap, badges, err := s.awardBadges(tx, userID, res.Snapshot, now)
		if err != nil {
			return err
		}
		res.Snapshot = snap
		out.Badges = badges

		if err := tx.SaveSnapshot(userID, snap, u.DecayWeek, now); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		out.ChestResult = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChestsOpened.WithLabelValues(string(out.Chest.Tier)).Inc()
	observeRewards(out.Rewards)
	observeRewards(out.BonusRewards)
	if out.LeveledUp {
		metrics.LevelUps.Inc()
	}
	log.WithFields(log.Fields{
		"user_id":  userID,
		"chest_id": chestID,
		"tier":     out.Chest.Tier,
		"rewards":  len(out.Rewards),
	}).Info("chest opened")
	return &out, nil
}

// GrantChest creates a chest outside the daily unlock, e.g. for an event.
// Only one unopened daily chest may exist at a time.
func (s *Service) GrantChest(userID string, kind domain.ChestKind) (*domain.LootChest, error) {
	if kind != domain.ChestDaily && kind != domain.ChestGeneric {
		return nil, &domain.InvalidInputError{Field: "kind", Reason: fmt.Sprintf("unknown chest kind %q", kind)}
	}

	var chest domain.LootChest
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		now := s.now()
		if kind == domain.ChestDaily {
			if u.Snapshot.HasUnopenedDailyChest {
				return domain.ErrDailyChestExists
			}
			u.Snapshot.HasUnopenedDailyChest = true
			u.Snapshot.DailyChestDate = engagement.CalendarDay(now)
		}

		doneToday := 0
		if engagement.SameDay(u.Snapshot.CompletionsDate, now) {
			doneToday = u.Snapshot.CompletionsToday
		}
		chest = s.engine.Loot().GenerateChest(kind, doneToday, u.Snapshot.TrustScore)
		chest.ID = uuid.NewString()
		chest.UserID = userID
		chest.CreatedAt = now
		if err := tx.InsertChest(chest); err != nil {
			return fmt.Errorf("store chest: %w", err)
		}
		return tx.SaveSnapshot(userID, u.Snapshot, u.DecayWeek, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.ChestsGenerated.WithLabelValues(string(chest.Tier)).Inc()
	return &chest, nil
}
