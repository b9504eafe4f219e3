package engagement

import (
	"math"

	"github.com/sidequest-app/sidequest/internal/domain"
)

// TrustPolicy holds the thresholds and rates of the trust evaluator.
type TrustPolicy struct {
	// Per-signal confidence weights when the signal is met.
	HealthWeight   float64
	TimerWeight    float64
	FocusWeight    float64
	LocationWeight float64
	PhotoWeight    float64

	// Evidence thresholds.
	MinSteps        int64
	MinSleepMinutes float64
	MaxAppSwitches  int

	// NoSignalConfidence is used when a quest requires no signals.
	NoSignalConfidence float64

	// Confidence bands for the trust delta.
	HighConfidence float64 // ≥ this: TrustGain, never spot-checked
	LowConfidence  float64 // < this: TrustLoss
	TrustGain      float64
	TrustLoss      float64

	// Spot-check sampling.
	LowTrustThreshold float64
	LowTrustCheckRate float64
	CheckRate         float64

	// Weekly inactivity decay.
	WeeklyDecay float64
}

// DefaultTrustPolicy returns the production trust policy.
// Gains are slow and losses fast so trust cannot be farmed but erodes
// quickly under abuse.
func DefaultTrustPolicy() TrustPolicy {
	return TrustPolicy{
		HealthWeight:   0.9,
		TimerWeight:    0.8,
		FocusWeight:    0.7,
		LocationWeight: 0.6,
		PhotoWeight:    0.5, // photos are gameable, kept below the high band

		MinSteps:        1000,
		MinSleepMinutes: 240,
		MaxAppSwitches:  5,

		NoSignalConfidence: 0.5,

		HighConfidence: 0.6,
		LowConfidence:  0.3,
		TrustGain:      0.5,
		TrustLoss:      -1.0,

		LowTrustThreshold: 40,
		LowTrustCheckRate: 0.4,
		CheckRate:         0.1,

		WeeklyDecay: 5,
	}
}

// TrustEvaluator scores completion evidence.
type TrustEvaluator struct {
	policy TrustPolicy
	rng    domain.RandomSource
}

// NewTrustEvaluator creates an evaluator drawing spot checks from rng.
func NewTrustEvaluator(policy TrustPolicy, rng domain.RandomSource) *TrustEvaluator {
	return &TrustEvaluator{policy: policy, rng: rng}
}

// Policy returns the evaluator's policy.
func (t *TrustEvaluator) Policy() TrustPolicy { return t.policy }

// Evaluate scores the payload against the quest's required signals and
// decides whether a spot check is needed.
func (t *TrustEvaluator) Evaluate(quest domain.Quest, payload domain.VerificationPayload, trustScore float64) domain.Verification {
	confidence, verified := t.Confidence(quest.Signals, payload)
	return domain.Verification{
		Confidence:      confidence,
		TrustDelta:      t.TrustDelta(confidence),
		NeedsProof:      t.NeedsProof(confidence, trustScore),
		SignalsVerified: verified,
	}
}

// Confidence is the mean per-signal weight across the required signals.
// With no required signals it falls back to NoSignalConfidence.
func (t *TrustEvaluator) Confidence(signals []domain.VerificationSignal, payload domain.VerificationPayload) (float64, []domain.VerificationSignal) {
	if len(signals) == 0 {
		return t.policy.NoSignalConfidence, nil
	}

	var sum float64
	var verified []domain.VerificationSignal
	for _, s := range signals {
		w := t.SignalWeight(s, payload)
		if w > 0 {
			verified = append(verified, s)
		}
		sum += w
	}
	return sum / float64(len(signals)), verified
}

// SignalWeight returns the confidence contributed by one signal, 0 if unmet.
func (t *TrustEvaluator) SignalWeight(s domain.VerificationSignal, p domain.VerificationPayload) float64 {
	switch s {
	case domain.SignalHealthWorkout:
		if p.Health != nil && (p.Health.WorkoutMinutes > 0 || p.Health.ActiveCalories > 0) {
			return t.policy.HealthWeight
		}
	case domain.SignalHealthSteps:
		if p.Health != nil && p.Health.Steps >= t.policy.MinSteps {
			return t.policy.HealthWeight
		}
	case domain.SignalHealthSleep:
		if p.Health != nil && p.Health.SleepMinutes >= t.policy.MinSleepMinutes {
			return t.policy.HealthWeight
		}
	case domain.SignalTimerCompletion:
		if p.Focus != nil && p.Focus.DurationMinutes > 0 {
			return t.policy.TimerWeight
		}
	case domain.SignalLowAppSwitching:
		if p.Focus != nil && p.Focus.AppSwitches < t.policy.MaxAppSwitches {
			return t.policy.FocusWeight
		}
	case domain.SignalLocationDwell:
		if p.LocationHash != "" {
			return t.policy.LocationWeight
		}
	case domain.SignalPhotoProof:
		if p.PhotoRef != "" {
			return t.policy.PhotoWeight
		}
	}
	return 0
}

// TrustDelta maps confidence to the asymmetric trust adjustment.
func (t *TrustEvaluator) TrustDelta(confidence float64) float64 {
	switch {
	case confidence >= t.policy.HighConfidence:
		return t.policy.TrustGain
	case confidence >= t.policy.LowConfidence:
		return 0
	default:
		return t.policy.TrustLoss
	}
}

// NeedsProof decides on a spot check. High-confidence completions are never
// checked; otherwise a uniform draw is compared against the sampling rate,
// which is four times higher for low-trust users.
func (t *TrustEvaluator) NeedsProof(confidence, trustScore float64) bool {
	if confidence >= t.policy.HighConfidence {
		return false
	}
	rate := t.policy.CheckRate
	if trustScore < t.policy.LowTrustThreshold {
		rate = t.policy.LowTrustCheckRate
	}
	return t.rng.Float64() < rate
}

// UpdateTrustScore applies delta and clamps the result to [0, 100].
func UpdateTrustScore(current, delta float64) float64 {
	return clampTrust(current + delta)
}

// ApplyWeeklyDecay lowers trust by 5 when no quest was completed during the
// week, floored at 0. Callers invoke it once per week boundary.
func ApplyWeeklyDecay(trustScore float64, completionsThisWeek int) float64 {
	return applyDecay(trustScore, completionsThisWeek, DefaultTrustPolicy().WeeklyDecay)
}

// ApplyWeeklyDecay is the policy-aware form of the package-level function.
func (t *TrustEvaluator) ApplyWeeklyDecay(trustScore float64, completionsThisWeek int) float64 {
	return applyDecay(trustScore, completionsThisWeek, t.policy.WeeklyDecay)
}

func applyDecay(trustScore float64, completions int, decay float64) float64 {
	if completions != 0 {
		return trustScore
	}
	return math.Max(0, trustScore-decay)
}
