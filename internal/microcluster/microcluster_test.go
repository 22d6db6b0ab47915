package microcluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjmmwon/FiReDR/pkg/collections"
)

func TestMicroCluster_GidxToLidx(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(3)
	mc := New([]int{10, 20, 30}, cooc, 10)

	assert.Equal(t, 0, mc.GidxToLidx(10))
	assert.Equal(t, 2, mc.GidxToLidx(30))
	assert.Equal(t, -1, mc.GidxToLidx(99))
	assert.True(t, mc.Contains(20))
	assert.False(t, mc.Contains(99))
}

func TestMicroCluster_UpdateCooccurrenceCount(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(3)
	mc := New([]int{10, 20, 30}, cooc, 10)

	mc.UpdateCooccurrenceCount([]int{10}, []int{20}, []int64{5})
	assert.Equal(t, int64(5), cooc.Get(0, 1))

	mc.UpdateCooccurrenceCount([]int{10}, []int{99}, []int64{5})
	assert.Equal(t, int64(0), cooc.Get(0, 2))
}

func TestMicroCluster_GetLocalIndices(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(3)
	mc := New([]int{10, 20, 30}, cooc, 10)

	assert.Equal(t, []int{2, -1, 0}, mc.GetLocalIndices([]int{30, 99, 10}))
}

func TestMicroCluster_SplitIntoComponents(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(4)
	cooc.Add(0, 1, 5)
	cooc.Add(2, 3, 5)

	mc := New([]int{1, 2, 3, 4}, cooc, 1)
	result := mc.Split(3)

	require.Len(t, result.Children, 2)
	require.NotNil(t, result.Inheritor)

	sizes := []int{result.Children[0].Size(), result.Children[1].Size()}
	assert.ElementsMatch(t, []int{2, 2}, sizes)

	for _, gidx := range result.Inheritor.Indices() {
		if gidx == 1 {
			return
		}
	}
	t.Fatal("inheritor child must contain the original head")
}

func TestMicroCluster_SplitChildrenInheritOnlyAboveThresholdEdges(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(4)
	cooc.Add(0, 1, 5) // gidx 1-2, within the surviving component
	cooc.Add(1, 2, 5) // gidx 2-3, within the surviving component
	cooc.Add(0, 2, 1) // gidx 1-3, extra direct edge below threshold, same component

	mc := New([]int{1, 2, 3, 4}, cooc, 1)
	result := mc.Split(3)

	require.Len(t, result.Children, 2)
	for _, child := range result.Children {
		assert.False(t, child.IsDirty(3), "a freshly split child must not inherit sub-threshold parent entries")
	}
}

func TestMicroCluster_MergePicksLargestAsHead(t *testing.T) {
	small := New([]int{1}, collections.NewSparseSymmetricMatrix(1), 1)
	large := New([]int{2, 3}, collections.NewSparseSymmetricMatrix(2), 2)

	merged := Merge([]*MicroCluster{small, large})

	assert.Equal(t, 2, merged.Head)
	assert.ElementsMatch(t, []int{1, 2, 3}, merged.Indices())
}

func TestMicroCluster_MergeBlockDiagonalHasNoCrossEntries(t *testing.T) {
	a := collections.NewSparseSymmetricMatrix(1)
	b := collections.NewSparseSymmetricMatrix(1)
	ca := New([]int{1}, a, 1)
	cb := New([]int{2}, b, 2)

	merged := Merge([]*MicroCluster{ca, cb})
	assert.Equal(t, int64(0), merged.Cooc.Get(merged.GidxToLidx(1), merged.GidxToLidx(2)))
}

func TestMicroCluster_IsDirty(t *testing.T) {
	cooc := collections.NewSparseSymmetricMatrix(2)
	cooc.Add(0, 1, 2)
	mc := New([]int{1, 2}, cooc, 1)

	assert.False(t, mc.IsDirty(2))
	assert.True(t, mc.IsDirty(3))
}
