// Package forest fans APT insert/split operations out across a bounded
// worker pool, one task per tree. Trees share no mutable state beyond
// the read-only, append-only data store, so a plain bounded fan-out
// pool is adequate rather than a custom synchronization primitive.
package forest

import (
	"context"

	"github.com/jjmmwon/FiReDR/internal/apttree"
	"github.com/jjmmwon/FiReDR/internal/datastore"
	"github.com/jjmmwon/FiReDR/pkg/model"
	"github.com/jjmmwon/FiReDR/pkg/parallel"
)

// Forest owns a fixed set of APTrees and dispatches insert/split calls
// across them in parallel.
type Forest struct {
	trees []*apttree.APTree
	pool  *parallel.WorkerPool
}

// New creates a Forest of nTrees APTrees, each sharing store and
// leafMaxSize, seeded with baseSeed + tree index.
func New(store *datastore.Store, nTrees int, leafMaxSize int, baseSeed int64, pool parallel.PoolConfig) *Forest {
	trees := make([]*apttree.APTree, nTrees)
	for i := 0; i < nTrees; i++ {
		trees[i] = apttree.New(store, leafMaxSize, baseSeed, i)
	}
	return &Forest{trees: trees, pool: parallel.New(pool)}
}

// NTrees returns the number of trees in the forest.
func (f *Forest) NTrees() int {
	return len(f.trees)
}

// Insert fans Insert(start, end) out across every tree and returns
// each tree's insertion events, indexed by tree.
func (f *Forest) Insert(ctx context.Context, start, end int) ([][]model.InsertionEvent, error) {
	results := make([][]model.InsertionEvent, len(f.trees))
	err := f.pool.Run(ctx, len(f.trees), func(_ context.Context, i int) error {
		events, err := f.trees[i].Insert(start, end)
		if err != nil {
			return err
		}
		results[i] = events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Split fans Split() out across every tree and returns each tree's
// node-split events, indexed by tree.
func (f *Forest) Split(ctx context.Context) ([][]model.NodeSplitEvent, error) {
	results := make([][]model.NodeSplitEvent, len(f.trees))
	err := f.pool.Run(ctx, len(f.trees), func(_ context.Context, i int) error {
		events, err := f.trees[i].Split()
		if err != nil {
			return err
		}
		results[i] = events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetAllLeafNodes returns, per tree, the tree's current leaves.
func (f *Forest) GetAllLeafNodes() [][]apttree.LeafNode {
	out := make([][]apttree.LeafNode, len(f.trees))
	for i, tree := range f.trees {
		out[i] = tree.GetAllLeafNodes()
	}
	return out
}

// GetIDToNodeMappings returns, per tree, an array indexed by global
// point index giving the leaf node that currently holds that point.
func (f *Forest) GetIDToNodeMappings(size int) [][]int32 {
	out := make([][]int32, len(f.trees))
	for i, tree := range f.trees {
		out[i] = tree.GetIDToNodeMapping(size)
	}
	return out
}
