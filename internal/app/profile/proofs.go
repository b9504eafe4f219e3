package profile

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/ledger"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/infra/metrics"
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// ProofOutcome is the result of resolving a spot check.
type ProofOutcome struct {
	ProofID   string          `json:"proof_id"`
	Accepted  bool            `json:"accepted"`
	Rewards   []domain.Reward `json:"rewards,omitempty"`
	Bonus     []domain.Reward `json:"bonus_rewards,omitempty"`
	LeveledUp bool            `json:"leveled_up"`
	Snapshot  domain.Snapshot `json:"snapshot"`
}

// PendingProofs lists a user's unresolved spot checks.
func (s *Service) PendingProofs(userID string) ([]domain.PendingProof, error) {
	if _, err := s.db.GetUser(userID); err != nil {
		return nil, err
	}
	return s.db.ListPendingProofs(userID)
}

// SubmitProof releases parked rewards once the supplied evidence scores at
// least the low-confidence floor against the quest's signals. Evidence that
// falls short is rejected and the proof stays pending.
func (s *Service) SubmitProof(userID, proofID string, evidence domain.VerificationPayload) (*ProofOutcome, error) {
	if evidence.Empty() {
		return nil, &domain.InvalidInputError{Field: "evidence", Reason: "proof needs at least one piece of evidence"}
	}

	out := ProofOutcome{ProofID: proofID, Accepted: true}
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		proof, err := tx.GetPendingProof(userID, proofID)
		if err != nil {
			return err
		}
		quest, err := tx.GetQuest(userID, proof.QuestID)
		if err != nil {
			return fmt.Errorf("load quest %s: %w", proof.QuestID, err)
		}
		// Quests without signals take any evidence at the neutral score.
		score, _ := s.engine.Trust().Confidence(quest.Signals, evidence)
		if floor := s.engine.Trust().Policy().LowConfidence; score < floor {
			return &domain.InvalidInputError{
				Field:  "evidence",
				Reason: fmt.Sprintf("does not satisfy the quest's signals (confidence %.2f < %.2f)", score, floor),
			}
		}

		now := s.now()
		app, err := s.engine.ApplyRewards(u.Snapshot, proof.Rewards)
		if err != nil {
			return err
		}
		err = ledger.Record(tx, ledger.Grant{
			UserID:     userID,
			QuestID:    proof.QuestID,
			At:         now,
			Confidence: proof.Confidence,
			Rewards:    app.AllRewards(),
		})
		if err != nil {
			return err
		}
		if err := tx.DeletePendingProof(userID, proofID); err != nil {
			return err
		}

		snap, _, err := s.awardBadges(tx, userID, app.Snapshot, now)
		if err != nil {
			return err
		}
		if err := tx.SaveSnapshot(userID, snap, u.DecayWeek, now); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}

		out.Rewards = app.Applied
		out.Bonus = app.BonusRewards
		out.LeveledUp = app.LeveledUp
		out.Snapshot = snap
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProofRequests.WithLabelValues("submitted").Inc()
	observeRewards(out.Rewards)
	observeRewards(out.Bonus)
	log.WithFields(log.Fields{"user_id": userID, "proof_id": proofID}).Info("proof accepted")
	return &out, nil
}

// RejectProof discards parked rewards and applies the trust loss.
func (s *Service) RejectProof(userID, proofID string) (*ProofOutcome, error) {
	out := ProofOutcome{ProofID: proofID}
	err := s.withUser(userID, func(tx *sqlite.Store, u *domain.User) error {
		if err := tx.DeletePendingProof(userID, proofID); err != nil {
			return err
		}
		now := s.now()
		loss := s.engine.Trust().Policy().TrustLoss
		u.Snapshot.TrustScore = engagement.UpdateTrustScore(u.Snapshot.TrustScore, loss)
		out.Snapshot = u.Snapshot
		return tx.SaveSnapshot(userID, u.Snapshot, u.DecayWeek, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.ProofRequests.WithLabelValues("rejected").Inc()
	log.WithFields(log.Fields{"user_id": userID, "proof_id": proofID}).Warn("proof rejected")
	return &out, nil
}
