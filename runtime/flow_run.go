package runtime

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mr-fuzzypants/nodegraph/types"
	"github.com/mr-fuzzypants/nodegraph/utils"
)

// flowRun is the mutable state of one cook_flow invocation: the three
// scheduler stacks plus the commit log and per-node state snapshots.
type flowRun struct {
	runID      string
	rootID     string
	subgraphID string

	// ready: dependency-free nodes drained as the next batch.
	ready []string
	// pending: node id -> ids it still waits on.
	pending map[string][]string
	// deferred: LIFO stack of loop re-entries, top at the end.
	deferred []string
	// completed: commit log, one entry per executed compute.
	completed []string
	// parked: nodes that returned WAIT; never rescheduled by this run.
	parked []string

	snapshots map[string]types.Data

	seq int64
}

func newFlowRun(rootID, subgraphID string) *flowRun {
	return &flowRun{
		runID:      uuid.NewString(),
		rootID:     rootID,
		subgraphID: subgraphID,
		pending:    map[string][]string{},
		snapshots:  map[string]types.Data{},
	}
}

// restore adopts the stacks of a checkpoint. Node states are re-applied
// by the executor, which knows the arena.
func (r *flowRun) restore(cp *Checkpoint) {
	r.runID = cp.RunID
	r.seq = cp.Seq
	r.ready = append([]string{}, cp.Ready...)
	r.deferred = append([]string{}, cp.Deferred...)
	r.completed = append([]string{}, cp.Completed...)
	r.pending = map[string][]string{}
	for id, deps := range cp.Pending {
		r.pending[id] = append([]string{}, deps...)
	}
	r.snapshots = map[string]types.Data{}
	for id, state := range cp.NodeStates {
		r.snapshots[id] = state.Clone()
	}
}

func (r *flowRun) ensurePending(id string) {
	if _, exists := r.pending[id]; !exists {
		r.pending[id] = []string{}
	}
}

func (r *flowRun) addDependency(id, dependsOn string) {
	r.ensurePending(id)
	if !utils.ContainsSlice(r.pending[id], dependsOn) {
		r.pending[id] = append(r.pending[id], dependsOn)
	}
}

// promoteReady moves every dependency-free pending node into ready.
func (r *flowRun) promoteReady() {
	for _, id := range pendingKeysInOrder(r.pending) {
		if len(r.pending[id]) > 0 {
			continue
		}
		delete(r.pending, id)
		if !utils.ContainsSlice(r.ready, id) {
			r.ready = append(r.ready, id)
		}
	}
}

// settleBatch removes just-completed dependencies, then promotes.
func (r *flowRun) settleBatch(batch []string) {
	for id, deps := range r.pending {
		for _, finished := range batch {
			deps = utils.RemoveSlice(deps, finished)
		}
		r.pending[id] = deps
	}
	r.promoteReady()
}

func (r *flowRun) popDeferred() (string, bool) {
	if len(r.deferred) == 0 {
		return "", false
	}
	top := r.deferred[len(r.deferred)-1]
	r.deferred = r.deferred[:len(r.deferred)-1]
	return top, true
}

// pendingKeysInOrder gives a stable iteration order so promotion, and
// with it batch composition, is reproducible.
func pendingKeysInOrder(pending map[string][]string) []string {
	keys := make([]string, 0, len(pending))
	for id := range pending {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
