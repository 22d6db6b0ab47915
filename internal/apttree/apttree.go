// Package apttree implements the Adaptive Progressive Tree: a single
// random-projection binary tree over the shared data store, with
// depth-synchronized normals and flat parallel-array node storage: node
// attributes live in slices indexed by node id rather than in a
// pointer-linked tree, to keep the hot insert/split loops cache-local.
package apttree

import (
	"math/rand"
	"sync"

	"github.com/jjmmwon/FiReDR/internal/datastore"
	"github.com/jjmmwon/FiReDR/internal/hyperplane"
	"github.com/jjmmwon/FiReDR/pkg/collections"
	"github.com/jjmmwon/FiReDR/pkg/errors"
	"github.com/jjmmwon/FiReDR/pkg/model"
)

const noChild int32 = -1

// APTree is one tree of the forest. insert and split are each
// single-threaded over this tree's own state; the forest is
// responsible for not calling either concurrently on the same tree.
type APTree struct {
	mu sync.Mutex

	store       *datastore.Store
	rng         *rand.Rand
	leafMaxSize int
	treeIndex   int

	// Flat-tree mirror: node attributes indexed by node id. Root is id 0.
	// leftChild[i] == noChild iff rightChild[i] == noChild iff node i is
	// currently a leaf.
	leftChild  []int32
	rightChild []int32
	threshold  []float64
	depth      []int32

	// stuck marks leaves that hit the degenerate-split case (all
	// projections landed on one side) and must never be re-split.
	stuck *collections.Bitset

	// leafIndices holds the global point indices currently held at each
	// leaf node. Entries are removed when a leaf becomes internal.
	leafIndices map[int32][]int32

	// leaves is the current set of leaf node ids.
	leaves []int32

	// normals is the depth-synchronized normals table: normals[d] is
	// shared by every node at depth d. Monotonically extended; an
	// existing row is never rewritten.
	normals [][]float64

	nextNodeID  int32
	insertCount int

	lastLog UpdateLog
}

// UpdateLog is the pair of events produced by this tree's most recent
// Insert and Split calls, kept for diagnostics and tests that want to
// inspect one tree's activity without re-deriving it from the forest's
// combined per-tree slices.
type UpdateLog struct {
	InsertionEvents []model.InsertionEvent
	SplitEvents     []model.NodeSplitEvent
}

// New creates an APTree with a single leaf root (id 0, depth 0,
// holding no indices), seeded with base_seed + treeIndex so trees in a
// forest diverge deterministically.
func New(store *datastore.Store, leafMaxSize int, baseSeed int64, treeIndex int) *APTree {
	t := &APTree{
		store:       store,
		rng:         rand.New(rand.NewSource(baseSeed + int64(treeIndex))),
		leafMaxSize: leafMaxSize,
		treeIndex:   treeIndex,
		stuck:       collections.NewBitset(64),
		leafIndices: make(map[int32][]int32),
	}
	root := t.growNode(0)
	t.leaves = []int32{root}
	return t
}

func (t *APTree) growNode(depth int32) int32 {
	id := t.nextNodeID
	t.nextNodeID++
	t.leftChild = append(t.leftChild, noChild)
	t.rightChild = append(t.rightChild, noChild)
	t.threshold = append(t.threshold, 0)
	t.depth = append(t.depth, depth)
	return id
}

func (t *APTree) isLeaf(id int32) bool {
	return t.leftChild[id] == noChild
}

// Insert routes every point in [start, end) from the data store down
// this tree to a leaf, recording the point's global index there.
// Projections onto every depth-normal currently known are computed
// once for the whole range up front (pre-projecting batch x normals
// amortizes the matrix multiply across all per-row traversals).
func (t *APTree) Insert(start, end int) ([]model.InsertionEvent, error) {
	if end <= start {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.normals) == 0 {
		dim := t.store.Dim()
		if dim == 0 {
			return nil, errors.New(errors.CodeEmptyStore, "cannot insert before the store has an established dimension")
		}
		t.normals = append(t.normals, hyperplane.GenerateNormal(dim, t.rng))
	}

	n := end - start
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = t.store.At(start + i)
	}

	maxDepth := len(t.normals)
	proj := make([][]float64, maxDepth)
	for d := 0; d < maxDepth; d++ {
		proj[d] = hyperplane.Project(rows, t.normals[d])
	}

	events := make([]model.InsertionEvent, 0, n)
	for i := 0; i < n; i++ {
		globalIdx := start + i
		nodeID := int32(0)
		for !t.isLeaf(nodeID) {
			d := t.depth[nodeID]
			if proj[d][i] >= t.threshold[nodeID] {
				nodeID = t.leftChild[nodeID]
			} else {
				nodeID = t.rightChild[nodeID]
			}
		}
		t.leafIndices[nodeID] = append(t.leafIndices[nodeID], int32(globalIdx))
		events = append(events, model.InsertionEvent{DataIndex: globalIdx, NodeID: nodeID})
	}

	t.insertCount++
	t.lastLog.InsertionEvents = events
	return events, nil
}

// Split drains a work queue seeded with the tree's current leaves,
// splitting any whose size exceeds leafMaxSize via a median-offset
// hyperplane at that leaf's depth, reusing the depth's shared normal
// if one already exists and generating (and recording) a fresh one
// otherwise. Runs after every Insert.
func (t *APTree) Split() ([]model.NodeSplitEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := append([]int32(nil), t.leaves...)
	newLeaves := make([]int32, 0, len(t.leaves))
	var events []model.NodeSplitEvent

	for len(queue) > 0 {
		leafID := queue[0]
		queue = queue[1:]

		if t.stuck.Test(int(leafID)) {
			newLeaves = append(newLeaves, leafID)
			continue
		}

		indices := t.leafIndices[leafID]
		if len(indices) <= t.leafMaxSize {
			newLeaves = append(newLeaves, leafID)
			continue
		}

		d := t.depth[leafID]
		rows := make([][]float64, len(indices))
		for i, idx := range indices {
			rows[i] = t.store.At(int(idx))
		}

		var normal []float64
		if int(d) < len(t.normals) {
			normal = t.normals[d]
		}
		hp := hyperplane.Generate(rows, normal, t.rng)
		if normal == nil {
			t.normals = append(t.normals, hp.Normal)
		}

		var left, right []int32
		for i, idx := range indices {
			if hp.Route(dot(rows[i], hp.Normal)) {
				left = append(left, idx)
			} else {
				right = append(right, idx)
			}
		}

		if len(right) == 0 {
			// Degenerate split: every projection landed on one side.
			// Mark permanently unsplittable rather than retry, since
			// retrying would draw a new normal forever without
			// guaranteeing termination.
			t.stuck.Set(int(leafID))
			newLeaves = append(newLeaves, leafID)
			continue
		}

		leftID := t.growNode(d + 1)
		rightID := t.growNode(d + 1)
		t.leftChild[leafID] = leftID
		t.rightChild[leafID] = rightID
		t.threshold[leafID] = hp.Offset

		t.leafIndices[leftID] = left
		t.leafIndices[rightID] = right
		delete(t.leafIndices, leafID)

		queue = append(queue, leftID, rightID)

		events = append(events, model.NodeSplitEvent{
			ParentID:     leafID,
			LeftChildID:  leftID,
			RightChildID: rightID,
			LeftIndices:  int32sToInts(left),
			RightIndices: int32sToInts(right),
			Depth:        int(d),
		})
	}

	t.leaves = newLeaves
	t.lastLog.SplitEvents = events
	return events, nil
}

// LastUpdateLog returns the insertion and split events produced by this
// tree's most recent Insert and Split calls.
func (t *APTree) LastUpdateLog() UpdateLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastLog
}

// LeafNode is a read-only snapshot of one leaf's contents.
type LeafNode struct {
	ID      int32
	Depth   int
	Indices []int
}

// GetAllLeafNodes returns a snapshot of every current leaf, its depth
// and the global point indices it holds.
func (t *APTree) GetAllLeafNodes() []LeafNode {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]LeafNode, 0, len(t.leaves))
	for _, id := range t.leaves {
		out = append(out, LeafNode{
			ID:      id,
			Depth:   int(t.depth[id]),
			Indices: int32sToInts(t.leafIndices[id]),
		})
	}
	return out
}

// GetIDToNodeMapping returns, for every point index in [0, size), the
// leaf node id that currently holds it. size must not exceed the
// number of points this tree has inserted.
func (t *APTree) GetIDToNodeMapping(size int) []int32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	mapping := make([]int32, size)
	for i := range mapping {
		mapping[i] = -1
	}
	for _, id := range t.leaves {
		for _, idx := range t.leafIndices[id] {
			if int(idx) < size {
				mapping[idx] = id
			}
		}
	}
	return mapping
}

// TreeIndex returns this tree's position in the forest.
func (t *APTree) TreeIndex() int {
	return t.treeIndex
}

func dot(a, b []float64) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func int32sToInts(xs []int32) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x)
	}
	return out
}
