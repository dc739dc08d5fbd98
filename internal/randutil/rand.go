// Package randutil provides reproducible random sources for chart rendering.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from seed, so repeated
// report runs over the same dataset produce byte-identical charts.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Jitter returns a value uniformly distributed in [-width, width].
func Jitter(r *rand.Rand, width float64) float64 {
	if width <= 0 {
		return 0
	}
	return (r.Float64()*2 - 1) * width
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
