package engagement

import (
	"math/rand"
	"sync"
	"time"
)

// NewRandom returns a seeded random source safe for concurrent use.
// A zero seed draws one from the clock; tests pass a fixed seed.
func NewRandom(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

// LockedRand serializes access to a *rand.Rand so one source can back the
// engines of many users.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// Float64 returns a uniform draw in [0, 1).
func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Intn returns a uniform draw in [0, n).
func (l *LockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
