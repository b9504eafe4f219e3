package engagement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/domain"
)

func newEvaluator(rng domain.RandomSource) *engagement.TrustEvaluator {
	return engagement.NewTrustEvaluator(engagement.DefaultTrustPolicy(), rng)
}

func TestConfidence_NoSignals(t *testing.T) {
	ev := newEvaluator(&scriptedRand{})
	c, verified := ev.Confidence(nil, domain.VerificationPayload{})
	assert.Equal(t, 0.5, c)
	assert.Empty(t, verified)
}

func TestConfidence_MeanOfSignalWeights(t *testing.T) {
	ev := newEvaluator(&scriptedRand{})
	signals := []domain.VerificationSignal{domain.SignalHealthWorkout, domain.SignalPhotoProof}

	c, verified := ev.Confidence(signals, domain.VerificationPayload{
		Health: &domain.HealthSummary{WorkoutMinutes: 30},
	})
	assert.InDelta(t, 0.45, c, 1e-9)
	assert.Equal(t, []domain.VerificationSignal{domain.SignalHealthWorkout}, verified)

	c, _ = ev.Confidence(signals, domain.VerificationPayload{
		Health:   &domain.HealthSummary{ActiveCalories: 200},
		PhotoRef: "img-1",
	})
	assert.InDelta(t, 0.7, c, 1e-9)
}

func TestSignalWeight_Thresholds(t *testing.T) {
	ev := newEvaluator(&scriptedRand{})

	assert.Zero(t, ev.SignalWeight(domain.SignalHealthSteps, domain.VerificationPayload{
		Health: &domain.HealthSummary{Steps: 999},
	}))
	assert.Equal(t, 0.9, ev.SignalWeight(domain.SignalHealthSteps, domain.VerificationPayload{
		Health: &domain.HealthSummary{Steps: 1000},
	}))
	assert.Zero(t, ev.SignalWeight(domain.SignalHealthSleep, domain.VerificationPayload{
		Health: &domain.HealthSummary{SleepMinutes: 239},
	}))
	assert.Equal(t, 0.7, ev.SignalWeight(domain.SignalLowAppSwitching, domain.VerificationPayload{
		Focus: &domain.FocusSession{DurationMinutes: 25, AppSwitches: 4},
	}))
	assert.Zero(t, ev.SignalWeight(domain.SignalLowAppSwitching, domain.VerificationPayload{
		Focus: &domain.FocusSession{DurationMinutes: 25, AppSwitches: 5},
	}))
	assert.Equal(t, 0.8, ev.SignalWeight(domain.SignalTimerCompletion, domain.VerificationPayload{
		Focus: &domain.FocusSession{DurationMinutes: 25},
	}))
	assert.Equal(t, 0.6, ev.SignalWeight(domain.SignalLocationDwell, domain.VerificationPayload{LocationHash: "u4pruy"}))
	assert.Zero(t, ev.SignalWeight(domain.SignalHealthWorkout, domain.VerificationPayload{}))
}

func TestTrustDelta_Asymmetric(t *testing.T) {
	ev := newEvaluator(&scriptedRand{})
	assert.Equal(t, 0.5, ev.TrustDelta(0.6))
	assert.Equal(t, 0.5, ev.TrustDelta(0.9))
	assert.Equal(t, 0.0, ev.TrustDelta(0.3))
	assert.Equal(t, 0.0, ev.TrustDelta(0.59))
	assert.Equal(t, -1.0, ev.TrustDelta(0.29))
}

func TestNeedsProof_HighConfidenceNeverChecked(t *testing.T) {
	// Even a draw of 0 and a distrusted user do not trigger a check.
	rng := &scriptedRand{floats: []float64{0, 0, 0}}
	ev := newEvaluator(rng)
	for _, trust := range []float64{0, 20, 50, 100} {
		assert.False(t, ev.NeedsProof(0.75, trust))
	}
	assert.Len(t, rng.floats, 3, "no draw should be consumed")
}

func TestNeedsProof_SamplingRates(t *testing.T) {
	ev := newEvaluator(&scriptedRand{floats: []float64{0.05, 0.15, 0.35, 0.45}})

	assert.True(t, ev.NeedsProof(0.5, 50), "0.05 < 0.1")
	assert.False(t, ev.NeedsProof(0.5, 50), "0.15 ≥ 0.1")
	assert.True(t, ev.NeedsProof(0.5, 39), "low trust: 0.35 < 0.4")
	assert.False(t, ev.NeedsProof(0.5, 39), "low trust: 0.45 ≥ 0.4")
}

func TestEvaluate_ComposesVerdict(t *testing.T) {
	ev := newEvaluator(&scriptedRand{})
	q := standardQuest("q1")
	q.Signals = []domain.VerificationSignal{domain.SignalTimerCompletion}

	v := ev.Evaluate(q, domain.VerificationPayload{Focus: &domain.FocusSession{DurationMinutes: 30}}, 50)
	assert.Equal(t, 0.8, v.Confidence)
	assert.Equal(t, 0.5, v.TrustDelta)
	assert.False(t, v.NeedsProof)
	assert.Equal(t, []domain.VerificationSignal{domain.SignalTimerCompletion}, v.SignalsVerified)

	v = ev.Evaluate(q, domain.VerificationPayload{}, 50)
	assert.Equal(t, 0.0, v.Confidence)
	assert.Equal(t, -1.0, v.TrustDelta)
}

func TestUpdateTrustScore_Clamps(t *testing.T) {
	assert.Equal(t, 100.0, engagement.UpdateTrustScore(99.8, 0.5))
	assert.Equal(t, 0.0, engagement.UpdateTrustScore(0.5, -1))
	assert.Equal(t, 50.5, engagement.UpdateTrustScore(50, 0.5))
}

func TestApplyWeeklyDecay(t *testing.T) {
	assert.Equal(t, 45.0, engagement.ApplyWeeklyDecay(50, 0))
	assert.Equal(t, 50.0, engagement.ApplyWeeklyDecay(50, 1))
	assert.Equal(t, 0.0, engagement.ApplyWeeklyDecay(3, 0), "floored at zero")

	ev := newEvaluator(&scriptedRand{})
	assert.Equal(t, 45.0, ev.ApplyWeeklyDecay(50, 0))
}
