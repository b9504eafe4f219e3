package domain

import "time"

// ─── Ports ──────────────────────────────────────────────────────────────────
// The engine's only impure inputs. Infrastructure implements them;
// tests pin them.

// RandomSource supplies the uniform draws behind loot tables and spot checks.
// *math/rand.Rand satisfies it.
type RandomSource interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64

	// Intn returns a uniform draw in [0, n). n must be > 0.
	Intn(n int) int
}

// Clock reads the current time for callers that stamp completions.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain func to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
