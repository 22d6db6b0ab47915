// Package clusterhandler maintains the set of micro-clusters: the
// sequential, single-writer consumer of forest insertion and split
// events that keeps the co-occurrence-graph partition of all known
// points consistent from one batch to the next.
package clusterhandler

import (
	"sort"

	"github.com/jjmmwon/FiReDR/internal/apttree"
	"github.com/jjmmwon/FiReDR/internal/cooccurrence"
	"github.com/jjmmwon/FiReDR/internal/microcluster"
	"github.com/jjmmwon/FiReDR/pkg/collections"
	"github.com/jjmmwon/FiReDR/pkg/errors"
	"github.com/jjmmwon/FiReDR/pkg/model"
	"github.com/jjmmwon/FiReDR/pkg/utils"
)

// initLeafThreshold is the heuristic leaf count the first tree must
// exceed before the handler trusts the co-occurrence signal enough to
// bless an initial partition.
const initLeafThreshold = 8

// ClusterHandler owns the current micro-cluster partition. It is the
// only writer of micro-cluster state and of the point-to-cluster
// index; callers must invoke its methods sequentially, after every
// tree in the forest has finished its own insert/split for the batch.
type ClusterHandler struct {
	threshold int64
	logger    utils.Logger

	microClusters       []*microcluster.MicroCluster
	idToMC              map[int]*microcluster.MicroCluster
	initialized         bool
	initializationPhase bool
}

// New creates a ClusterHandler with the given edge threshold.
func New(threshold int, logger utils.Logger) *ClusterHandler {
	if logger == nil {
		logger = utils.NopLogger{}
	}
	return &ClusterHandler{
		threshold: int64(threshold),
		logger:    logger,
		idToMC:    make(map[int]*microcluster.MicroCluster),
	}
}

// Initialized reports whether the handler has bootstrapped its first
// partition yet.
func (h *ClusterHandler) Initialized() bool { return h.initialized }

// MicroClusters returns the current partition. The returned slice and
// its elements are owned by the handler; callers needing a stable
// snapshot should copy.
func (h *ClusterHandler) MicroClusters() []*microcluster.MicroCluster {
	return h.microClusters
}

// Process runs one full batch cycle against the handler: initializing
// on the first eligible batch, then split-handling, then
// insertion-handling, in that order (split-handling consumes the
// pre-insertion id-to-cluster state).
func (h *ClusterHandler) Process(
	startIdx, size int,
	leafNodesPerTree [][]apttree.LeafNode,
	idToNodePerTree [][]int32,
	splitEventsPerTree [][]model.NodeSplitEvent,
) model.ClusterUpdateEvent {
	h.maybeInitialize(leafNodesPerTree, size)

	splitEvents := h.handleSplit(startIdx, splitEventsPerTree)
	merges, creations := h.handleInsertion(startIdx, size, idToNodePerTree, leafNodesPerTree)

	return model.ClusterUpdateEvent{
		SplitEvents:    splitEvents,
		MergeEvents:    merges,
		CreationEvents: creations,
	}
}

func (h *ClusterHandler) maybeInitialize(leafNodesPerTree [][]apttree.LeafNode, size int) {
	if h.initialized {
		return
	}
	if len(leafNodesPerTree) == 0 || len(leafNodesPerTree[0]) <= initLeafThreshold {
		return
	}

	acc := cooccurrence.BuildAccumulated(leafNodesPerTree, size)
	allIndices := make([]int, size)
	for i := range allIndices {
		allIndices[i] = i
	}
	whole := microcluster.New(allIndices, acc, 0)
	result := whole.Split(h.threshold)

	h.microClusters = result.Children
	h.idToMC = make(map[int]*microcluster.MicroCluster, size)
	for _, mc := range h.microClusters {
		for _, gidx := range mc.Indices() {
			h.idToMC[gidx] = mc
		}
	}
	h.initialized = true
	h.initializationPhase = true
	h.logger.Info("cluster handler initialized: %d micro-clusters over %d points", len(h.microClusters), size)
}

// handleSplit processes every tree's NodeSplitEvents: a pair of
// pre-batch points that moved from sharing a leaf to sitting on
// opposite sides of a new split has lost one unit of co-occurrence
// weight in that tree.
func (h *ClusterHandler) handleSplit(startIdx int, splitEventsPerTree [][]model.NodeSplitEvent) []model.MicroClusterSplitEvent {
	if !h.initialized {
		return nil
	}

	dirty := make(map[*microcluster.MicroCluster]bool)

	for _, treeEvents := range splitEventsPerTree {
		for _, ev := range treeEvents {
			leftOld := filterOld(ev.LeftIndices, startIdx)
			rightOld := filterOld(ev.RightIndices, startIdx)
			if len(leftOld) == 0 || len(rightOld) == 0 {
				continue
			}

			perMCLeft := h.groupByMC(leftOld)
			perMCRight := h.groupByMC(rightOld)

			for mc, lefts := range perMCLeft {
				rights, ok := perMCRight[mc]
				if !ok {
					continue
				}
				// A decrement can drop an edge entirely (count reaching
				// zero is not stored), which IsDirty cannot see, so a
				// stored edge falling below threshold also marks mc dirty.
				severed := false
				for _, l := range lefts {
					for _, r := range rights {
						ll, lr := mc.GidxToLidx(l), mc.GidxToLidx(r)
						before := mc.Cooc.Get(ll, lr)
						mc.UpdateCooccurrenceCount([]int{l}, []int{r}, []int64{-1})
						if before > 0 && mc.Cooc.Get(ll, lr) < h.threshold {
							severed = true
						}
					}
				}
				if severed || mc.IsDirty(h.threshold) {
					dirty[mc] = true
				}
			}
		}
	}

	if len(dirty) == 0 {
		return nil
	}

	var events []model.MicroClusterSplitEvent
	for mc := range dirty {
		result := mc.Split(h.threshold)
		h.replaceMC(mc, result.Children)
		for _, child := range result.Children {
			for _, gidx := range child.Indices() {
				h.idToMC[gidx] = child
			}
		}

		children := make([]model.MicroClusterRef, len(result.Children))
		for i, c := range result.Children {
			children[i] = c
		}
		var inheritor model.MicroClusterRef
		if result.Inheritor != nil {
			inheritor = result.Inheritor
		}
		events = append(events, model.MicroClusterSplitEvent{
			Parent:    mc,
			Children:  children,
			Inheritor: inheritor,
		})
	}
	return events
}

// handleInsertion absorbs newly inserted points into the partition:
// each new point's co-occurrence tally across the forest's leaves
// decides whether it joins existing micro-clusters, joins other new
// points into a fresh cluster, or both.
func (h *ClusterHandler) handleInsertion(
	startIdx, size int,
	idToNodePerTree [][]int32,
	leafNodesPerTree [][]apttree.LeafNode,
) ([]model.MicroClusterMergeEvent, []model.MicroClusterCreationEvent) {
	if h.initializationPhase {
		h.initializationPhase = false
		return nil, nil
	}
	if !h.initialized || startIdx >= size {
		return nil, nil
	}

	nTrees := len(idToNodePerTree)
	leafByID := make([]map[int32][]int, nTrees)
	for t := 0; t < nTrees; t++ {
		m := make(map[int32][]int, len(leafNodesPerTree[t]))
		for _, leaf := range leafNodesPerTree[t] {
			m[leaf.ID] = leaf.Indices
		}
		leafByID[t] = m
	}

	nMCs := len(h.microClusters)
	nNew := size - startIdx
	mcSlot := make(map[*microcluster.MicroCluster]int, nMCs)
	for i, mc := range h.microClusters {
		mcSlot[mc] = i
	}

	type crossEdge struct {
		p, q, count int
	}
	var crossEdges []crossEdge

	g := collections.NewSparseSymmetricMatrix(nMCs + nNew)

	for p := startIdx; p < size; p++ {
		leafByTree := make([]int32, nTrees)
		indicesByTree := make([][]int, nTrees)
		for t := 0; t < nTrees; t++ {
			leafID := idToNodePerTree[t][p]
			leafByTree[t] = leafID
			indicesByTree[t] = leafByID[t][leafID]
		}

		tally := cooccurrence.Tally(p, leafByTree, indicesByTree)
		pSlot := nMCs + (p - startIdx)

		for q, count := range tally {
			if count < int(h.threshold) {
				continue
			}
			if q >= startIdx {
				qSlot := nMCs + (q - startIdx)
				g.Add(pSlot, qSlot, int64(count))
				continue
			}
			mc, ok := h.idToMC[q]
			if !ok {
				panic(errors.Newf(errors.CodeUnknownIndex, "handleInsertion: point %d has no owning micro-cluster", q))
			}
			slot, ok := mcSlot[mc]
			if !ok {
				panic(errors.Newf(errors.CodeUnknownIndex, "handleInsertion: micro-cluster owning point %d has no assigned slot", q))
			}
			g.Add(pSlot, slot, int64(count))
			crossEdges = append(crossEdges, crossEdge{p: p, q: q, count: count})
		}
	}

	labels, numComponents := g.ConnectedComponents(1)
	componentSlots := make([][]int, numComponents)
	for slot, label := range labels {
		componentSlots[label] = append(componentSlots[label], slot)
	}

	var merges []model.MicroClusterMergeEvent
	var creations []model.MicroClusterCreationEvent
	var toRemove []*microcluster.MicroCluster
	var toAdd []*microcluster.MicroCluster

	for _, slots := range componentSlots {
		var mcsToMerge []*microcluster.MicroCluster
		var newIDs []int
		for _, slot := range slots {
			if slot < nMCs {
				mcsToMerge = append(mcsToMerge, h.microClusters[slot])
			} else {
				newIDs = append(newIDs, startIdx+(slot-nMCs))
			}
		}
		if len(newIDs) == 0 {
			continue
		}
		sort.Ints(newIDs)

		newSlots := make([]int, len(newIDs))
		for i, gidx := range newIDs {
			newSlots[i] = nMCs + (gidx - startIdx)
		}
		subCooc := g.SubMatrix(newSlots)
		newMC := microcluster.New(newIDs, subCooc, newIDs[0])

		if len(mcsToMerge) == 0 {
			toAdd = append(toAdd, newMC)
			creations = append(creations, model.MicroClusterCreationEvent{Created: newMC})
			continue
		}

		merged := microcluster.Merge(append(append([]*microcluster.MicroCluster{}, mcsToMerge...), newMC))
		for _, e := range crossEdges {
			if !merged.Contains(e.p) || !merged.Contains(e.q) {
				continue
			}
			merged.UpdateCooccurrenceCount([]int{e.p}, []int{e.q}, []int64{int64(e.count)})
		}

		mergedRefs := make([]model.MicroClusterRef, 0, len(mcsToMerge)+1)
		for _, mc := range mcsToMerge {
			mergedRefs = append(mergedRefs, mc)
			toRemove = append(toRemove, mc)
		}
		mergedRefs = append(mergedRefs, newMC)
		toAdd = append(toAdd, merged)
		merges = append(merges, model.MicroClusterMergeEvent{Merged: mergedRefs, Head: merged})
	}

	h.removeAndAdd(toRemove, toAdd)
	return merges, creations
}

func (h *ClusterHandler) groupByMC(indices []int) map[*microcluster.MicroCluster][]int {
	out := make(map[*microcluster.MicroCluster][]int)
	for _, gidx := range indices {
		mc, ok := h.idToMC[gidx]
		if !ok {
			panic(errors.Newf(errors.CodeUnknownIndex, "groupByMC: point %d has no owning micro-cluster", gidx))
		}
		out[mc] = append(out[mc], gidx)
	}
	return out
}

func (h *ClusterHandler) replaceMC(old *microcluster.MicroCluster, children []*microcluster.MicroCluster) {
	kept := h.microClusters[:0]
	for _, mc := range h.microClusters {
		if mc != old {
			kept = append(kept, mc)
		}
	}
	h.microClusters = append(kept, children...)
}

func (h *ClusterHandler) removeAndAdd(toRemove, toAdd []*microcluster.MicroCluster) {
	if len(toRemove) == 0 && len(toAdd) == 0 {
		return
	}
	removeSet := make(map[*microcluster.MicroCluster]bool, len(toRemove))
	for _, mc := range toRemove {
		removeSet[mc] = true
	}
	kept := h.microClusters[:0]
	for _, mc := range h.microClusters {
		if !removeSet[mc] {
			kept = append(kept, mc)
		}
	}
	h.microClusters = append(kept, toAdd...)
	for _, mc := range toAdd {
		for _, gidx := range mc.Indices() {
			h.idToMC[gidx] = mc
		}
	}
}

func filterOld(indices []int, startIdx int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < startIdx {
			out = append(out, idx)
		}
	}
	return out
}
