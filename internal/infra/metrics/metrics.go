// Package metrics provides Prometheus metrics for SideQuest:
// completions, rewards, trust, chests, streaks and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sidequest"

// ─── Completions ────────────────────────────────────────────────────────────

// CompletionsTotal tracks accepted quest completions by difficulty.
var CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "completions_total",
	Help:      "Total accepted quest completions.",
}, []string{"difficulty"})

// CompletionsRejected tracks completions refused before any mutation.
var CompletionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "completions_rejected_total",
	Help:      "Total rejected completions by reason.",
}, []string{"reason"})

// CompletionLatency tracks end-to-end completion processing time.
var CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "completion_latency_seconds",
	Help:      "Time to process and persist a completion.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// ─── Rewards ────────────────────────────────────────────────────────────────

// RewardsGranted tracks reward amounts credited by type and rarity.
var RewardsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "rewards_granted_total",
	Help:      "Total reward amount credited.",
}, []string{"type", "rarity"})

// LevelUps tracks levels gained across all users.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "level_ups_total",
	Help:      "Total levels gained.",
})

// BadgesUnlocked tracks badge unlocks by badge ID.
var BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "badges_unlocked_total",
	Help:      "Total badges unlocked.",
}, []string{"badge"})

// ─── Trust ──────────────────────────────────────────────────────────────────

// VerificationConfidence tracks the confidence distribution of completions.
var VerificationConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "verification_confidence",
	Help:      "Confidence assigned to quest completions.",
	Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
})

// ProofRequests tracks spot checks by outcome: requested, submitted, rejected.
var ProofRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "proof_requests_total",
	Help:      "Spot checks by outcome.",
}, []string{"outcome"})

// TrustDecays tracks weekly inactivity decays applied.
var TrustDecays = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "trust_decays_total",
	Help:      "Total weekly trust decays applied.",
})

// ─── Loot & Streaks ─────────────────────────────────────────────────────────

// ChestsGenerated tracks chests created by tier.
var ChestsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "chests_generated_total",
	Help:      "Total loot chests generated.",
}, []string{"tier"})

// ChestsOpened tracks chests opened by tier.
var ChestsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "chests_opened_total",
	Help:      "Total loot chests opened.",
}, []string{"tier"})

// StreakEvents tracks streak transitions: incremented, reset, saved.
var StreakEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "streak_events_total",
	Help:      "Streak transitions by kind.",
}, []string{"event"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check result (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HTTPRequests tracks API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total API requests.",
}, []string{"route", "code"})
