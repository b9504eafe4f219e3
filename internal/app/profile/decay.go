package profile

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/metrics"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// maxDecayWeeks bounds how far back an absent user's weeks are evaluated.
const maxDecayWeeks = 52

// DecayResult reports the weekly inactivity decay settled for a user.
type DecayResult struct {
	UserID         string  `json:"user_id"`
	WeeksEvaluated int     `json:"weeks_evaluated"`
	Decays         int     `json:"decays"`
	TrustBefore    float64 `json:"trust_before"`
	TrustAfter     float64 `json:"trust_after"`
}

// ApplyWeeklyDecay settles every finished week since the user's last
// evaluation. Each week without a completion lowers trust once.
// Running it twice in the same week is a no-op.
func (s *Service) ApplyWeeklyDecay(userID string) (*DecayResult, error) {
	var res DecayResult
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		now := s.now()
		var err error
		res, err = s.settleDecay(tx, u, now)
		if err != nil {
			return err
		}
		if res.WeeksEvaluated == 0 {
			return nil
		}
		return tx.SaveSnapshot(userID, u.Snapshot, u.DecayWeek, now)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ApplyWeeklyDecayAll settles decay for every user. The daemon runs it
// periodically so inactive users decay without interacting. A user that
// fails is logged and skipped; the joined failures are returned alongside
// the results of everyone else.
func (s *Service) ApplyWeeklyDecayAll() ([]DecayResult, error) {
	users, err := s.db.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return settleEach(ids, s.ApplyWeeklyDecay)
}

func settleEach(userIDs []string, settle func(string) (*DecayResult, error)) ([]DecayResult, error) {
	var settled []DecayResult
	var errs []error
	for _, id := range userIDs {
		res, err := settle(id)
		if err != nil {
			log.WithError(err).WithField("user_id", id).Error("weekly decay failed")
			errs = append(errs, fmt.Errorf("decay %s: %w", id, err))
			continue
		}
		if res.WeeksEvaluated > 0 {
			settled = append(settled, *res)
		}
	}
	return settled, errors.Join(errs...)
}

// settleDecay evaluates the weeks from the user's decay marker up to, but
// not including, the current ISO week and advances the marker. It mutates
// u in place; the caller persists it.
func (s *Service) settleDecay(tx *sqlite.Store, u *domain.User, now time.Time) (DecayResult, error) {
	res := DecayResult{
		UserID:      u.ID,
		TrustBefore: u.Snapshot.TrustScore,
		TrustAfter:  u.Snapshot.TrustScore,
	}
	current := engagement.ISOWeek(now)
	// ISO week strings sort chronologically.
	if u.DecayWeek >= current {
		return res, nil
	}

	trust := u.Snapshot.TrustScore
	thisWeek := engagement.WeekStart(now)
	for i := 1; i <= maxDecayWeeks; i++ {
		from := thisWeek.AddDate(0, 0, -7*i)
		to := from.AddDate(0, 0, 7)
		n, err := tx.CompletionCount(u.ID, from, to)
		if err != nil {
			return res, fmt.Errorf("count completions: %w", err)
		}
		res.WeeksEvaluated++
		if n == 0 {
			trust = s.engine.Trust().ApplyWeeklyDecay(trust, n)
			res.Decays++
		}
		if u.DecayWeek == "" || engagement.ISOWeek(from) <= u.DecayWeek {
			break
		}
	}

	u.Snapshot.TrustScore = trust
	u.DecayWeek = current
	res.TrustAfter = trust

	if res.Decays > 0 {
		metrics.TrustDecays.Add(float64(res.Decays))
		log.WithFields(log.Fields{
			"user_id": u.ID,
			"weeks":   res.WeeksEvaluated,
			"decays":  res.Decays,
			"trust":   trust,
		}).Info("weekly trust decay applied")
	}
	return res, nil
}
