package utils

import "math/rand"

// NewSeededRNG returns a *rand.Rand seeded deterministically from seed.
// Every APTree owns an RNG seeded the same way (base_seed+tree_index) so that
// reseeding with an identical seed and identical batch stream
// reproduces identical trees and micro-cluster sets.
func NewSeededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
