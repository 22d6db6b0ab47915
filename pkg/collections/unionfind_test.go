package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind_SingletonsByDefault(t *testing.T) {
	uf := NewUnionFind(4)
	labels, n := uf.Labels()

	assert.Equal(t, 4, n)
	assert.Equal(t, 4, len(distinct(labels)))
}

func TestUnionFind_UnionMergesComponents(t *testing.T) {
	uf := NewUnionFind(5)
	uf.Union(0, 1)
	uf.Union(1, 2)

	labels, n := uf.Labels()
	assert.Equal(t, 3, n)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
	assert.NotEqual(t, labels[0], labels[3])
	assert.NotEqual(t, labels[3], labels[4])
}

func distinct(labels []int32) map[int32]bool {
	out := make(map[int32]bool)
	for _, l := range labels {
		out[l] = true
	}
	return out
}
