package cooccurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jjmmwon/FiReDR/internal/apttree"
)

func TestBuildAccumulated_SumsWeightAcrossTrees(t *testing.T) {
	treeA := []apttree.LeafNode{{ID: 0, Indices: []int{0, 1, 2}}}
	treeB := []apttree.LeafNode{{ID: 0, Indices: []int{0, 1}}, {ID: 1, Indices: []int{2}}}

	m := BuildAccumulated([][]apttree.LeafNode{treeA, treeB}, 3)

	assert.Equal(t, int64(2), m.Get(0, 1)) // shared leaf in both trees
	assert.Equal(t, int64(1), m.Get(0, 2)) // shared only in tree A
	assert.Equal(t, int64(1), m.Get(1, 2)) // shared only in tree A
}

func TestBuildAccumulated_SingletonLeavesContributeNothing(t *testing.T) {
	leaves := []apttree.LeafNode{{ID: 0, Indices: []int{0}}, {ID: 1, Indices: []int{1}}}
	m := BuildAccumulated([][]apttree.LeafNode{leaves}, 2)

	assert.Equal(t, int64(0), m.Get(0, 1))
	assert.Empty(t, m.Entries())
}

func TestTally_ExcludesSelfAndCountsPerTree(t *testing.T) {
	// Point 5 shares a leaf with 1 and 2 in tree 0, and with 1 only in
	// tree 1.
	leafByTree := []int32{10, 20}
	indicesByTree := [][]int{
		{1, 2, 5},
		{1, 5},
	}

	tally := Tally(5, leafByTree, indicesByTree)

	assert.Equal(t, map[int]int{1: 2, 2: 1}, tally)
	_, hasSelf := tally[5]
	assert.False(t, hasSelf)
}

func TestTally_NoSiblingsProducesEmptyTally(t *testing.T) {
	tally := Tally(0, []int32{1}, [][]int{{0}})
	assert.Empty(t, tally)
}
