// Package cooccurrence builds sparse co-occurrence matrices from the
// forest's leaf structure: pairs of points sharing a leaf in a tree
// contribute one unit of weight, summed across trees, backed by
// SparseSymmetricMatrix rather than a scipy.sparse-style accumulation.
package cooccurrence

import (
	"github.com/jjmmwon/FiReDR/internal/apttree"
	"github.com/jjmmwon/FiReDR/pkg/collections"
)

// BuildAccumulated constructs the co-occurrence matrix over all n
// known points: for every tree, for every leaf, every unordered pair
// of indices held at that leaf contributes +1, summed over trees.
func BuildAccumulated(leafNodesPerTree [][]apttree.LeafNode, n int) *collections.SparseSymmetricMatrix {
	m := collections.NewSparseSymmetricMatrix(n)
	for _, leaves := range leafNodesPerTree {
		for _, leaf := range leaves {
			addPairwise(m, leaf.Indices, 1)
		}
	}
	return m
}

// addPairwise adds delta to every unordered pair (i, j), i != j, drawn
// from indices.
func addPairwise(m *collections.SparseSymmetricMatrix, indices []int, delta int64) {
	for a := 0; a < len(indices); a++ {
		for b := a + 1; b < len(indices); b++ {
			m.Add(indices[a], indices[b], delta)
		}
	}
}

// Tally computes, for a single new point p, how many trees place each
// other known point q in the same leaf as p. leafByTree[t] is the id
// of the leaf p sits in for tree t; indicesByTree[t] is the full
// sibling index list of that leaf (p included). p itself is excluded
// from the result.
func Tally(p int, leafByTree []int32, indicesByTree [][]int) map[int]int {
	tally := make(map[int]int)
	for t := range leafByTree {
		for _, q := range indicesByTree[t] {
			if q == p {
				continue
			}
			tally[q]++
		}
	}
	return tally
}
