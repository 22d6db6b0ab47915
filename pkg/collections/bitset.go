// Package collections provides generic data structures shared by the
// forest and cluster-handler packages.
package collections

import "math/bits"

// Bitset is a memory-efficient boolean set using bit manipulation. It is
// used to mark leaves that have become permanently unsplittable (the
// degenerate-split case).
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset creates a bitset able to hold at least size bits.
func NewBitset(size int) *Bitset {
	if size <= 0 {
		size = 64
	}
	return &Bitset{words: make([]uint64, (size+63)/64), size: size}
}

// Set sets the bit at index i, growing the set if necessary.
func (b *Bitset) Set(i int) {
	if i < 0 {
		return
	}
	b.growTo(i + 1)
	b.words[i/64] |= 1 << uint(i%64)
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i/64 >= len(b.words) {
		return
	}
	b.words[i/64] &^= 1 << uint(i%64)
}

// Test reports whether the bit at index i is set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b *Bitset) growTo(size int) {
	need := (size + 63) / 64
	if need <= len(b.words) {
		if size > b.size {
			b.size = size
		}
		return
	}
	newCap := len(b.words) * 2
	if newCap < need {
		newCap = need
	}
	grown := make([]uint64, newCap)
	copy(grown, b.words)
	b.words = grown
	b.size = size
}
