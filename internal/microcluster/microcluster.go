// Package microcluster implements the MicroCluster: a partition cell
// of known points carrying its own co-occurrence sub-matrix, plus the
// split/merge operations that keep the partition consistent with the
// forest's current tree structure.
package microcluster

import (
	"sort"

	"github.com/jjmmwon/FiReDR/pkg/collections"
)

// MicroCluster is a set of global point indices plus the co-occurrence
// sub-matrix restricted to those indices, addressed through a local
// index space [0, len(Indices)).
//
// Invariants: indices has no duplicates; Head is always a member;
// Cooc is symmetric, non-negative, stores no zero entries, and — once
// IsDirty(threshold) is false — induces a single connected component
// over its indices at that threshold.
type MicroCluster struct {
	indices []int
	Cooc    *collections.SparseSymmetricMatrix
	Head    int

	// gidxToLidx maps a global point index to its position in indices.
	gidxToLidx map[int]int
}

// New creates a MicroCluster over indices with the given local-indexed
// co-occurrence matrix (len(indices) == cooc.Size()) and head.
func New(indices []int, cooc *collections.SparseSymmetricMatrix, head int) *MicroCluster {
	mc := &MicroCluster{indices: indices, Cooc: cooc, Head: head}
	mc.rebuildIndex()
	return mc
}

func (mc *MicroCluster) rebuildIndex() {
	mc.gidxToLidx = make(map[int]int, len(mc.indices))
	for lidx, gidx := range mc.indices {
		mc.gidxToLidx[gidx] = lidx
	}
}

// Size returns the number of points in the cluster.
func (mc *MicroCluster) Size() int { return len(mc.indices) }

// Indices returns the global point indices held by this cluster. The
// returned slice is owned by the cluster and must not be mutated.
func (mc *MicroCluster) Indices() []int { return mc.indices }

// GidxToLidx returns the local index of a global point index, or -1 if
// the point is not a member.
func (mc *MicroCluster) GidxToLidx(gidx int) int {
	if lidx, ok := mc.gidxToLidx[gidx]; ok {
		return lidx
	}
	return -1
}

// Contains reports whether gidx is a member of this cluster.
func (mc *MicroCluster) Contains(gidx int) bool {
	_, ok := mc.gidxToLidx[gidx]
	return ok
}

// GetLocalIndices resolves a batch of global point indices to local
// indices in one call, in the style of GidxToLidx but for multiple
// points at once; non-members resolve to -1 in the same position.
func (mc *MicroCluster) GetLocalIndices(gidxs []int) []int {
	out := make([]int, len(gidxs))
	for i, gidx := range gidxs {
		out[i] = mc.GidxToLidx(gidx)
	}
	return out
}

// UpdateCooccurrenceCount adds counts[k] symmetrically to (rows[k],
// cols[k]) for each k, where rows/cols are global point indices. Local
// indices are resolved via gidxToLidx; pairs referencing a non-member
// are skipped.
func (mc *MicroCluster) UpdateCooccurrenceCount(rows, cols []int, counts []int64) {
	for k := range rows {
		lr, ok1 := mc.gidxToLidx[rows[k]]
		lc, ok2 := mc.gidxToLidx[cols[k]]
		if !ok1 || !ok2 {
			continue
		}
		mc.Cooc.Add(lr, lc, counts[k])
	}
}

// IsDirty reports whether the cluster has an edge whose weight has
// fallen below threshold, meaning the partition may no longer be a
// single connected component at that threshold and needs re-splitting.
func (mc *MicroCluster) IsDirty(threshold int64) bool {
	return mc.Cooc.IsDirty(threshold)
}

// Split partitions the cluster into one child MicroCluster per
// connected component of the threshold-induced adjacency graph. The
// child containing the original head inherits it; Inheritor points to
// that child (the same pointer held in Children). Other children designate
// the smallest-global-index member among their points as head.
type SplitResult struct {
	Children  []*MicroCluster
	Inheritor *MicroCluster
}

func (mc *MicroCluster) Split(threshold int64) SplitResult {
	labels, numComponents := mc.Cooc.ConnectedComponents(threshold)

	// Restrict to the threshold-adjacency before extracting each
	// child's sub-matrix: a surviving edge below threshold would
	// otherwise be inherited verbatim by whichever child holds both of
	// its endpoints, leaving that child born dirty even though it is a
	// single connected component at this threshold.
	filtered := mc.Cooc.Filtered(threshold)

	componentIndices := make([][]int, numComponents)
	for lidx, label := range labels {
		componentIndices[label] = append(componentIndices[label], mc.indices[lidx])
	}

	children := make([]*MicroCluster, numComponents)
	var inheritor *MicroCluster
	for c, gidxs := range componentIndices {
		sort.Ints(gidxs)
		localOfComponent := make([]int, len(gidxs))
		for k, gidx := range gidxs {
			localOfComponent[k] = mc.gidxToLidx[gidx]
		}
		subCooc := filtered.SubMatrix(localOfComponent)

		head := gidxs[0]
		containsOldHead := false
		for _, gidx := range gidxs {
			if gidx == mc.Head {
				containsOldHead = true
				head = mc.Head
				break
			}
		}

		child := New(gidxs, subCooc, head)
		children[c] = child
		if containsOldHead {
			inheritor = child
		}
	}

	return SplitResult{Children: children, Inheritor: inheritor}
}

// Merge combines others (head-cluster form): indices are concatenated,
// co-occurrence matrices block-diagonalized (no inter-cluster entries
// are fabricated; callers patch in real cross-cluster counts afterward
// via UpdateCooccurrenceCount), and the largest input by size becomes
// the merge's designated head-bearing cluster.
func Merge(clusters []*MicroCluster) *MicroCluster {
	if len(clusters) == 0 {
		return New(nil, collections.NewSparseSymmetricMatrix(0), 0)
	}

	headCluster := clusters[0]
	for _, c := range clusters[1:] {
		if c.Size() > headCluster.Size() {
			headCluster = c
		}
	}

	totalIndices := make([]int, 0)
	mats := make([]*collections.SparseSymmetricMatrix, 0, len(clusters))
	for _, c := range clusters {
		totalIndices = append(totalIndices, c.indices...)
		mats = append(mats, c.Cooc)
	}

	cooc := collections.BlockDiag(mats...)
	return New(totalIndices, cooc, headCluster.Head)
}
