package forest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjmmwon/FiReDR/internal/datastore"
	"github.com/jjmmwon/FiReDR/pkg/errors"
	"github.com/jjmmwon/FiReDR/pkg/parallel"
)

func newTestForest(t *testing.T, nTrees, leafMaxSize int) (*Forest, *datastore.Store) {
	t.Helper()
	store := datastore.New()
	f := New(store, nTrees, leafMaxSize, 7, parallel.DefaultPoolConfig())
	return f, store
}

func TestForest_InsertFansOutAcrossEveryTree(t *testing.T) {
	f, store := newTestForest(t, 5, 128)
	_, err := store.Append(datastore.NewFloat64Batch([][]float64{{1, 2}, {3, 4}, {5, 6}}))
	require.NoError(t, err)

	events, err := f.Insert(context.Background(), 0, 3)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for _, perTree := range events {
		assert.Len(t, perTree, 3)
	}
}

func TestForest_SplitPartitionsEveryTreeIndependently(t *testing.T) {
	f, store := newTestForest(t, 3, 2)
	rows := make([][]float64, 12)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(-i)}
	}
	_, err := store.Append(datastore.NewFloat64Batch(rows))
	require.NoError(t, err)

	_, err = f.Insert(context.Background(), 0, 12)
	require.NoError(t, err)

	events, err := f.Split(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	leaves := f.GetAllLeafNodes()
	require.Len(t, leaves, 3)
	for _, perTree := range leaves {
		for _, leaf := range perTree {
			assert.LessOrEqual(t, len(leaf.Indices), 2)
		}
	}
}

func TestForest_GetIDToNodeMappingsCoverEveryTree(t *testing.T) {
	f, store := newTestForest(t, 2, 128)
	_, err := store.Append(datastore.NewFloat64Batch([][]float64{{1, 2}, {3, 4}}))
	require.NoError(t, err)

	_, err = f.Insert(context.Background(), 0, 2)
	require.NoError(t, err)

	mappings := f.GetIDToNodeMappings(2)
	require.Len(t, mappings, 2)
	for _, m := range mappings {
		assert.Len(t, m, 2)
	}
}

func TestForest_InsertPropagatesPerTreeError(t *testing.T) {
	f, _ := newTestForest(t, 4, 128)

	// No data appended yet: every tree's Insert should fail with
	// EmptyStore, and the pool must surface that failure rather than
	// swallowing it.
	_, err := f.Insert(context.Background(), 0, 1)
	assert.True(t, errors.IsEmptyStore(err))
}

func TestForest_NTrees(t *testing.T) {
	f, _ := newTestForest(t, 6, 128)
	assert.Equal(t, 6, f.NTrees())
}
