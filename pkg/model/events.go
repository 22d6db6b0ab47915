// Package model defines the value objects exchanged between the forest,
// the cluster handler, and callers of the engine.
package model

// InsertionEvent records that a point was routed into a leaf of a single
// tree during a batch.
type InsertionEvent struct {
	DataIndex int
	NodeID    int32
}

// NodeSplitEvent records that a leaf of a single tree was split into two
// children during a batch.
type NodeSplitEvent struct {
	ParentID      int32
	LeftChildID   int32
	RightChildID  int32
	LeftIndices   []int
	RightIndices  []int
	Depth         int
}

// MicroClusterRef identifies a micro-cluster snapshot inside an event. The
// engine hands out pointers to live micro-clusters produced within the
// same cycle; callers must not assume stability across subsequent updates.
type MicroClusterRef interface {
	Size() int
	Indices() []int
}

// MicroClusterSplitEvent records that a micro-cluster whose internal
// co-occurrence graph lost an edge was re-split into one child per
// connected component; a single child means the graph stayed connected.
type MicroClusterSplitEvent struct {
	Parent    MicroClusterRef
	Children  []MicroClusterRef
	Inheritor MicroClusterRef
}

// MicroClusterMergeEvent records that one or more existing micro-clusters
// absorbed newly inserted points into a single micro-cluster.
type MicroClusterMergeEvent struct {
	Merged []MicroClusterRef
	Head   MicroClusterRef
}

// MicroClusterCreationEvent records that a brand-new micro-cluster was
// created from points with no co-occurrence above threshold with any
// existing micro-cluster.
type MicroClusterCreationEvent struct {
	Created MicroClusterRef
}

// ClusterUpdateEvent is the result of processing one batch: the full set
// of structural changes to the micro-cluster partition observed during
// the cycle (split handling runs before insertion handling).
type ClusterUpdateEvent struct {
	SplitEvents    []MicroClusterSplitEvent
	MergeEvents    []MicroClusterMergeEvent
	CreationEvents []MicroClusterCreationEvent
}

// IsEmpty reports whether the batch produced no structural change at all.
func (e ClusterUpdateEvent) IsEmpty() bool {
	return len(e.SplitEvents) == 0 && len(e.MergeEvents) == 0 && len(e.CreationEvents) == 0
}
