package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sidequest-app/sidequest/internal/domain"
)

func TestQuestCooldown(t *testing.T) {
	now := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	q := domain.Quest{ID: "q", Status: domain.QuestActive, CooldownHours: 12}

	assert.True(t, q.CanComplete(now), "never completed")
	assert.True(t, q.CooldownEndsAt().IsZero())

	q = q.MarkCompleted(now)
	assert.Equal(t, domain.QuestActive, q.Status)
	assert.True(t, q.OnCooldown(now.Add(11*time.Hour)))
	assert.False(t, q.CanComplete(now.Add(11*time.Hour)))
	assert.True(t, q.CanComplete(now.Add(12*time.Hour)))
	assert.Equal(t, now.Add(12*time.Hour), q.CooldownEndsAt())
}

func TestQuestOneShot(t *testing.T) {
	now := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	q := domain.Quest{ID: "q", Status: domain.QuestActive}
	assert.False(t, q.Recurring())

	q = q.MarkCompleted(now)
	assert.Equal(t, domain.QuestCompleted, q.Status)
	assert.False(t, q.CanComplete(now.AddDate(1, 0, 0)))
}

func TestSignalsAndDifficulty(t *testing.T) {
	for _, s := range domain.AllSignals() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, domain.VerificationSignal("vibes").Valid())
	assert.True(t, domain.DifficultyHard.Valid())
	assert.False(t, domain.Difficulty("").Valid())

	q := domain.Quest{Signals: []domain.VerificationSignal{domain.SignalPhotoProof}}
	assert.True(t, q.RequiresSignal(domain.SignalPhotoProof))
	assert.False(t, q.RequiresSignal(domain.SignalHealthSteps))
}

func TestPayloadEmpty(t *testing.T) {
	assert.True(t, domain.VerificationPayload{}.Empty())
	assert.False(t, domain.VerificationPayload{Note: "did it"}.Empty())
	assert.False(t, domain.VerificationPayload{Focus: &domain.FocusSession{}}.Empty())
}

func TestPreconditionErrorUnwrap(t *testing.T) {
	var err error = &domain.PreconditionError{QuestID: "q", Reason: domain.ReasonOnCooldown}
	assert.True(t, errors.Is(err, domain.ErrQuestNotCompletable))
	assert.True(t, errors.Is(err, domain.ErrQuestOnCooldown))
	assert.False(t, errors.Is(err, domain.ErrQuestNotActive))
	assert.True(t, domain.IsPrecondition(err))
	assert.Contains(t, err.Error(), "on_cooldown")

	err = &domain.PreconditionError{QuestID: "q", Reason: domain.ReasonNotActive}
	assert.True(t, errors.Is(err, domain.ErrQuestNotActive))
	assert.False(t, domain.IsInvalidInput(err))
}

func TestInvalidInputError(t *testing.T) {
	var err error = &domain.InvalidInputError{Field: "snapshot.xp", Reason: "must be ≥ 0"}
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, "invalid snapshot.xp: must be ≥ 0", err.Error())
}

func TestNewSnapshot(t *testing.T) {
	s := domain.NewSnapshot()
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, domain.DefaultTrustScore, s.TrustScore)
}

func TestRewardApplicationAllRewards(t *testing.T) {
	app := domain.RewardApplication{
		Applied:      []domain.Reward{{Type: domain.RewardXP, Amount: 1}},
		BonusRewards: []domain.Reward{{Type: domain.RewardGold, Amount: 20}},
	}
	all := app.AllRewards()
	assert.Len(t, all, 2)
	assert.Equal(t, domain.RewardGold, all[1].Type)
}
