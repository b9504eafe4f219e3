package profile

import (
	"fmt"
	"time"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/ledger"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// BadgeView pairs a catalog badge with the user's unlock state.
type BadgeView struct {
	domain.BadgeDef
	Unlocked   bool      `json:"unlocked"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
}

// Badges returns the full catalog annotated with the user's unlocks.
func (s *Service) Badges(userID string) ([]BadgeView, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}
	unlocked, err := s.db.ListBadges(userID)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(unlocked))
	for _, b := range unlocked {
		at[b.ID] = b.UnlockedAt
	}

	defs := engagement.AllBadges()
	views := make([]BadgeView, len(defs))
	for i, def := range defs {
		t, ok := at[def.ID]
		views[i] = BadgeView{BadgeDef: def, Unlocked: ok, UnlockedAt: t}
	}
	return views, nil
}

// awardBadges unlocks every badge the snapshot now qualifies for and
// credits their gems through ApplyRewards.
func (s *Service) awardBadges(tx *sqlite.Store, userID string, snap domain.Snapshot, at time.Time) (domain.Snapshot, []domain.BadgeDef, error) {
	opened, err := tx.OpenedChestCount(userID)
	if err != nil {
		return snap, nil, fmt.Errorf("count chests: %w", err)
	}
	verified, err := tx.VerifiedCompletionCount(userID, s.engine.Trust().Policy().HighConfidence)
	if err != nil {
		return snap, nil, fmt.Errorf("count verified: %w", err)
	}
	unlocked, err := tx.UnlockedBadgeSet(userID)
	if err != nil {
		return snap, nil, fmt.Errorf("load badges: %w", err)
	}

	earned := engagement.NewlyEarned(engagement.StatsFor(snap, opened, verified), unlocked)
	if len(earned) == 0 {
		return snap, nil, nil
	}
	for _, b := range earned {
		if _, err := tx.UnlockBadge(userID, b.ID, at); err != nil {
			return snap, nil, fmt.Errorf("unlock %s: %w", b.ID, err)
		}
	}

	rewards := engagement.BadgeRewards(earned)
	if len(rewards) == 0 {
		return snap, earned, nil
	}
	app, err := s.engine.ApplyRewards(snap, rewards)
	if err != nil {
		return snap, nil, err
	}
	if err := ledger.Record(tx, ledger.Grant{UserID: userID, At: at, Rewards: app.AllRewards()}); err != nil {
		return snap, nil, err
	}
	return app.Snapshot, earned, nil
}
