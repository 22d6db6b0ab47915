// Package prodr implements a progressive (online) clustering engine
// for high-dimensional streaming data: an ensemble of random-projection
// binary trees (the APT Forest) whose leaf co-occurrence votes drive a
// cluster handler that maintains a partition of all known points into
// micro-clusters.
package prodr

import (
	"context"

	"github.com/jjmmwon/FiReDR/internal/clusterhandler"
	"github.com/jjmmwon/FiReDR/internal/datastore"
	"github.com/jjmmwon/FiReDR/internal/forest"
	"github.com/jjmmwon/FiReDR/pkg/config"
	"github.com/jjmmwon/FiReDR/pkg/errors"
	"github.com/jjmmwon/FiReDR/pkg/model"
	"github.com/jjmmwon/FiReDR/pkg/utils"
)

// MicroCluster is a read-only snapshot of one micro-cluster returned by
// Engine.GetMicroClusters.
type MicroCluster struct {
	Indices []int
	Head    int
}

// Engine is the progressive clustering engine: an append-only data
// store, the APT forest built over it, and the cluster handler that
// turns forest structure into a micro-cluster partition.
type Engine struct {
	cfg config.Config

	store   *datastore.Store
	forest  *forest.Forest
	handler *clusterhandler.ClusterHandler

	logger utils.Logger
}

// New creates an Engine from cfg. A zero Config is invalid; use
// config.DefaultConfig as a starting point.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = utils.NopLogger{}
	}

	store := datastore.New()
	f := forest.New(store, cfg.NTrees, cfg.LeafMaxSize, cfg.Seed, cfg.Pool)
	handler := clusterhandler.New(cfg.ResolveThreshold(), logger)

	return &Engine{cfg: cfg, store: store, forest: f, handler: handler, logger: logger}, nil
}

// NewDefault creates an Engine with config.DefaultConfig.
func NewDefault() (*Engine, error) {
	return New(config.DefaultConfig())
}

// Update runs one batch cycle: append -> forest insert -> forest split
// -> handler split-handling -> handler insertion-handling, returning
// the structural changes to the micro-cluster partition observed
// during the cycle. Fails with DimensionMismatch or DtypeMismatch if
// rows is inconsistent with previously appended data; on failure the
// engine's state is unchanged.
func (e *Engine) Update(ctx context.Context, rows [][]float64) (model.ClusterUpdateEvent, error) {
	if len(rows) == 0 {
		return model.ClusterUpdateEvent{}, errors.New(errors.CodeInvalidInput, "batch must contain at least one row")
	}

	timer := utils.NewBatchTimer()

	startIdx, err := e.store.Append(datastore.NewFloat64Batch(rows))
	if err != nil {
		return model.ClusterUpdateEvent{}, err
	}
	size := e.store.Size()
	timer.Mark("append")

	if _, err := e.forest.Insert(ctx, startIdx, size); err != nil {
		return model.ClusterUpdateEvent{}, err
	}
	timer.Mark("forest_insert")

	splitEventsPerTree, err := e.forest.Split(ctx)
	if err != nil {
		return model.ClusterUpdateEvent{}, err
	}
	timer.Mark("forest_split")

	leafNodesPerTree := e.forest.GetAllLeafNodes()
	idToNodePerTree := e.forest.GetIDToNodeMappings(size)

	event := e.handler.Process(startIdx, size, leafNodesPerTree, idToNodePerTree, splitEventsPerTree)
	timer.Mark("cluster_handler")

	e.logger.Debug("batch processed: start=%d size=%d splits=%d merges=%d creations=%d phases=%v",
		startIdx, size, len(event.SplitEvents), len(event.MergeEvents), len(event.CreationEvents), timer.Phases())

	return event, nil
}

// GetMicroClusters returns a read-only snapshot of the current
// micro-cluster partition. Calling it twice between updates returns
// the same logical partition; each call allocates fresh copies so
// callers may freely mutate the result.
func (e *Engine) GetMicroClusters() []MicroCluster {
	mcs := e.handler.MicroClusters()
	out := make([]MicroCluster, len(mcs))
	for i, mc := range mcs {
		indices := make([]int, len(mc.Indices()))
		copy(indices, mc.Indices())
		out[i] = MicroCluster{Indices: indices, Head: mc.Head}
	}
	return out
}

// Size returns the total number of points appended so far.
func (e *Engine) Size() int {
	return e.store.Size()
}

// Dim returns the established feature dimension, or 0 before the
// first Update.
func (e *Engine) Dim() int {
	return e.store.Dim()
}
