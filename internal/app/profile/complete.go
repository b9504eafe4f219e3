package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/ledger"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/metrics"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// CompleteRequest is a user's claim to have completed a quest.
type CompleteRequest struct {
	Payload        domain.VerificationPayload `json:"payload"`
	UseStreakSaver bool                       `json:"use_streak_saver"`
}

// CompletionOutcome is the persisted result of a completion.
type CompletionOutcome struct {
	domain.CompletionResult
	ProofID string            `json:"proof_id,omitempty"` // set when rewards wait for proof
	Badges  []domain.BadgeDef `json:"badges,omitempty"`
	Decay   *DecayResult      `json:"decay,omitempty"`
	// ChestUpgraded is today's unopened daily chest after it moved up a tier.
	ChestUpgraded *domain.LootChest `json:"chest_upgraded,omitempty"`
}

// CompleteQuest runs a completion through the engine and persists the
// result atomically. Spot-checked completions keep their trust delta and
// cooldown but park the quest rewards until SubmitProof.
func (s *Service) CompleteQuest(userID, questID string, req CompleteRequest) (*CompletionOutcome, error) {
	start := time.Now()
	var out CompletionOutcome

	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		quest, err := tx.GetQuest(userID, questID)
		if err != nil {
			return err
		}

		now := s.now()
		decay, err := s.settleDecay(tx, u, now)
		if err != nil {
			return err
		}
		if decay.WeeksEvaluated > 0 {
			out.Decay = &decay
		}

		res, err := s.engine.Complete(engagement.CompletionRequest{
			Snapshot:       u.Snapshot,
			Quest:          *quest,
			Payload:        req.Payload,
			At:             now,
			UseStreakSaver: req.UseStreakSaver,
			HoldRewards:    true,
		})
		if err != nil {
			return err
		}

		if err := tx.UpdateQuestCompletion(res.Quest); err != nil {
			return fmt.Errorf("update quest: %w", err)
		}
		if _, err := tx.InsertCompletion(userID, questID, now, res.Verification); err != nil {
			return fmt.Errorf("record completion: %w", err)
		}

		if res.ProofRequired {
			proof := domain.PendingProof{
				ID:         uuid.NewString(),
				UserID:     userID,
				QuestID:    questID,
				Rewards:    res.Rewards,
				Confidence: res.Verification.Confidence,
				CreatedAt:  now,
			}
			if err := tx.InsertPendingProof(proof); err != nil {
				return fmt.Errorf("park rewards: %w", err)
			}
			out.ProofID = proof.ID
		} else {
			err := ledger.Record(tx, ledger.Grant{
				UserID:     userID,
				QuestID:    questID,
				At:         now,
				Confidence: res.Verification.Confidence,
				Rewards:    append(append([]domain.Reward{}, res.Rewards...), res.BonusRewards...),
			})
			if err != nil {
				return err
			}
		}

		if res.Chest != nil {
			res.Chest.ID = uuid.NewString()
			res.Chest.UserID = userID
			if err := tx.InsertChest(*res.Chest); err != nil {
				return fmt.Errorf("store daily chest: %w", err)
			}
		} else if res.Snapshot.HasUnopenedDailyChest {
			upgraded, err := s.upgradeDailyChest(tx, userID, res.Snapshot, now)
			if err != nil {
				return err
			}
			out.ChestUpgraded = upgraded
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
		out.CompletionResult = res
		return nil
	})
	if err != nil {
		observeRejection(err)
		return nil, err
	}

	observeCompletion(&out, time.Since(start))
	log.WithFields(log.Fields{
		"user_id":    userID,
		"quest_id":   questID,
		"confidence": out.Verification.Confidence,
		"proof":      out.ProofRequired,
		"user_level": out.NewLevel,
		"streak":     out.Streak.Streak,
	}).Info("quest completed")
	return &out, nil
}

// upgradeDailyChest lifts today's unopened daily chest to the tier the
// current completion count earns. It returns nil when nothing changed.
func (s *Service) upgradeDailyChest(tx *sqlite.Store, userID string, snap domain.Snapshot, now time.Time) (*domain.LootChest, error) {
	chests, err := tx.ListChests(userID, true)
	if err != nil {
		return nil, fmt.Errorf("list chests: %w", err)
	}
	for _, c := range chests {
		if c.Kind != domain.ChestDaily {
			continue
		}
		upgraded, ok := s.engine.UpgradeDailyChest(snap, c, now)
		if !ok {
			return nil, nil
		}
		if err := tx.UpdateChestContents(upgraded); err != nil {
			return nil, fmt.Errorf("upgrade daily chest: %w", err)
		}
		return &upgraded, nil
	}
	return nil, nil
}

func observeCompletion(out *CompletionOutcome, took time.Duration) {
	metrics.CompletionsTotal.WithLabelValues(string(out.Quest.Difficulty)).Inc()
	metrics.CompletionLatency.Observe(took.Seconds())
	metrics.VerificationConfidence.Observe(out.Verification.Confidence)
	if out.ProofRequired {
		metrics.ProofRequests.WithLabelValues("requested").Inc()
	} else {
		observeRewards(out.Rewards)
	}
	observeRewards(out.BonusRewards)
	if out.LevelsGained > 0 {
		metrics.LevelUps.Add(float64(out.LevelsGained))
	}
	if out.Chest != nil {
		metrics.ChestsGenerated.WithLabelValues(string(out.Chest.Tier)).Inc()
	}
	if out.ChestUpgraded != nil {
		metrics.ChestsGenerated.WithLabelValues(string(out.ChestUpgraded.Tier)).Inc()
	}
	switch {
	case out.Streak.Incremented:
		metrics.StreakEvents.WithLabelValues("incremented").Inc()
	case out.Streak.Reset:
		metrics.StreakEvents.WithLabelValues("reset").Inc()
	}
	if out.Streak.SaverConsumed {
		metrics.StreakEvents.WithLabelValues("saved").Inc()
	}
	for _, b := range out.Badges {
		metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
	}
}

func observeRewards(rewards []domain.Reward) {
	for _, r := range rewards {
		metrics.RewardsGranted.WithLabelValues(string(r.Type), string(r.Rarity)).Add(float64(r.Amount))
	}
}

func observeRejection(err error) {
	var pe *domain.PreconditionError
	switch {
	case errors.As(err, &pe):
		metrics.CompletionsRejected.WithLabelValues(string(pe.Reason)).Inc()
	case domain.IsInvalidInput(err):
		metrics.CompletionsRejected.WithLabelValues("invalid_input").Inc()
	}
}
