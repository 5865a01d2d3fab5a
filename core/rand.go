package core

import (
	"math/rand"
	"time"
)

// Rand is the source of randomness for per-turn stochastic decisions
// (counter questions, topic shifts, memory surfacing, brain lag).
// *math/rand.Rand satisfies it. Production code uses NewRand; tests inject
// a deterministic implementation to force specific outcomes.
type Rand interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64

	// Intn returns a pseudo-random number in [0, n).
	Intn(n int) int
}

// NewRand returns a wall-clock seeded Rand. Draws are independent and
// non-reproducible across runs, which is the intended production behavior.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
