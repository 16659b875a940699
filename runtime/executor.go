package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/store"
	"github.com/mr-fuzzypants/nodegraph/types"
	"github.com/mr-fuzzypants/nodegraph/utils"
)

// Executor drives a graph to completion from an entry node. It owns the
// arena for the duration of a run: nodes write their own output ports
// through results, the executor writes input ports during propagation,
// and nothing else touches either.
type Executor struct {
	arena *graph.Arena
	store store.Store
	opts  *types.ExecOptions
	hooks Hooks

	wp *workerpool.WorkerPool
}

func NewExecutor(arena *graph.Arena, s store.Store, opts *types.ExecOptions, hooks Hooks) *Executor {
	if opts == nil {
		opts = types.NewExecOptions()
	}
	return &Executor{
		arena: arena,
		store: s,
		opts:  opts,
		hooks: hooks,
		wp:    workerpool.New(opts.MaxConcurrency),
	}
}

// Close drains the worker pool. The executor cannot run after Close.
func (e *Executor) Close() {
	e.wp.StopWait()
}

// CookData forces computation of a node's data dependencies, recursively,
// then computes the node itself. No control propagation happens: this is
// pure lazy data-dependency evaluation. Each dirty ancestor computes
// exactly once, source before target.
func (e *Executor) CookData(ctx context.Context, nodeID string) error {
	node, exists := e.arena.Node(nodeID)
	if !exists {
		return errors.NotFoundf("node %s", nodeID)
	}
	run := newFlowRun(nodeID, node.ParentID())
	return errors.Trace(e.cookDataNode(ctx, run.runID, node, map[string]bool{}))
}

func (e *Executor) cookDataNode(ctx context.Context, runID string, node graph.Node, visiting map[string]bool) error {
	if visiting[node.ID()] {
		return errors.Forbiddenf("data cycle through node %s", node.ID())
	}
	visiting[node.ID()] = true
	defer delete(visiting, node.ID())

	for _, port := range node.InputPorts(types.DataPort) {
		for _, up := range e.arena.UpstreamNodes(port) {
			if up.IsDirty() && up.IsDataNode() {
				if err := e.cookDataNode(ctx, runID, up, visiting); err != nil {
					return errors.Trace(err)
				}
			}
		}
	}

	if node.IsSubgraph() {
		e.propagateTunnelIn(node)
	}

	ectx := e.buildContext(ctx, runID, node)
	result, err := e.computeWithHooks(ctx, ectx, node)
	if err != nil {
		return types.NewComputeError(node.ID(), err)
	}
	e.applyResult(node, result)
	if node.IsSubgraph() {
		e.collectTunnelOut(node)
	}
	e.pushData(node)
	return nil
}

// CookFlow drives flow-control execution from the entry node until the
// ready batch and the deferred stack are both empty. The returned
// checkpoint is the terminal snapshot.
func (e *Executor) CookFlow(ctx context.Context, entryID string) (*Checkpoint, error) {
	return e.cookFlow(ctx, entryID, nil)
}

// ResumeFlow continues a run from a checkpoint: node states are restored,
// the three stacks are adopted, and the tick loop picks up where the
// checkpoint left off.
func (e *Executor) ResumeFlow(ctx context.Context, entryID string, cp *Checkpoint) (*Checkpoint, error) {
	if cp == nil {
		return nil, errors.BadRequestf("nil resume checkpoint")
	}
	return e.cookFlow(ctx, entryID, cp)
}

func (e *Executor) cookFlow(ctx context.Context, entryID string, resume *Checkpoint) (*Checkpoint, error) {
	entry, exists := e.arena.Node(entryID)
	if !exists {
		return nil, errors.NotFoundf("node %s", entryID)
	}

	run := newFlowRun(entryID, entry.ParentID())
	if resume != nil {
		run.restore(resume)
		e.restoreNodeStates(run, resume)
	} else {
		if entry.IsFlowControl() {
			e.buildFlowStack(run, entry)
		} else {
			e.buildDataStack(run, entry)
		}
		run.promoteReady()
	}

	var last *Checkpoint
	for len(run.ready) > 0 || len(run.deferred) > 0 {
		if len(run.ready) == 0 {
			// Deferred is LIFO: the innermost loop re-entry runs first, so
			// nested loops finish inside-out.
			id, _ := run.popDeferred()
			if node, ok := e.arena.Node(id); ok {
				log.Debugf("run %s: re-expanding deferred node %s", run.runID, id)
				e.buildFlowStack(run, node)
				run.promoteReady()
			}
			continue
		}

		batch := run.ready
		run.ready = nil

		results, failedID, err := e.runBatch(ctx, run, batch)
		if err != nil {
			// The error checkpoint re-arms exactly the failed batch so a
			// resume re-runs it. Nothing from the batch is committed.
			run.ready = batch
			e.snapshotNodes(run, batch)
			e.snapshotPending(run)
			cp := run.buildCheckpoint(failedID, err)
			e.emitCheckpoint(ctx, cp)
			return cp, errors.Trace(types.NewComputeError(failedID, err))
		}

		for i, result := range results {
			if node, ok := e.arena.Node(batch[i]); ok {
				e.commitResult(run, node, result)
			}
		}
		run.settleBatch(batch)

		e.snapshotNodes(run, batch)
		e.snapshotPending(run)
		last = run.buildCheckpoint("", nil)
		e.emitCheckpoint(ctx, last)
	}

	if len(run.pending) > 0 {
		remaining := map[string][]string{}
		for id, deps := range run.pending {
			remaining[id] = append([]string{}, deps...)
		}
		return last, errors.Trace(types.NewDependencyError(remaining))
	}
	return last, nil
}

func (e *Executor) emitCheckpoint(ctx context.Context, cp *Checkpoint) {
	if e.opts.Checkpoints {
		saveCheckpoint(ctx, e.store, cp)
	}
	e.hooks.checkpoint(cp)
}

func (e *Executor) restoreNodeStates(run *flowRun, cp *Checkpoint) {
	completed := map[string]bool{}
	for _, id := range cp.Completed {
		completed[id] = true
	}
	for id, state := range cp.NodeStates {
		node, exists := e.arena.Node(id)
		if !exists {
			log.Warnf("run %s: checkpoint names unknown node %s", run.runID, id)
			continue
		}
		node.RestoreState(state)
		if completed[id] {
			node.MarkClean()
		}
	}
}

// runBatch resolves data inputs sequentially, then computes the whole
// batch concurrently and joins. On failure it reports the first failing
// node in batch order; no results are applied.
func (e *Executor) runBatch(ctx context.Context, run *flowRun, batch []string) ([]*types.ExecutionResult, string, error) {
	nodes := make([]graph.Node, len(batch))
	ectxs := make([]*types.ExecContext, len(batch))
	for i, id := range batch {
		node, exists := e.arena.Node(id)
		if !exists {
			return nil, id, errors.NotFoundf("node %s", id)
		}
		if node.IsSubgraph() {
			e.propagateTunnelIn(node)
		}
		if err := e.resolveDataInputs(ctx, run, node); err != nil {
			return nil, id, errors.Trace(err)
		}
		nodes[i] = node
		ectxs[i] = e.buildContext(ctx, run.runID, node)
	}

	results := make([]*types.ExecutionResult, len(batch))
	failures := make([]error, len(batch))
	var wg sync.WaitGroup
	for i := range nodes {
		i := i
		wg.Add(1)
		e.wp.Submit(func() {
			defer wg.Done()
			results[i], failures[i] = e.computeWithHooks(ctx, ectxs[i], nodes[i])
		})
	}
	wg.Wait()

	for i, err := range failures {
		if err != nil {
			return nil, batch[i], errors.Trace(err)
		}
	}
	return results, "", nil
}

// resolveDataInputs lazily cooks any dirty data-producing ancestor of the
// node before it computes. Runs in the sequential pre-pass of a batch.
func (e *Executor) resolveDataInputs(ctx context.Context, run *flowRun, node graph.Node) error {
	for _, port := range node.InputPorts(types.DataPort) {
		for _, up := range e.arena.UpstreamNodes(port) {
			if up.IsDirty() && up.IsDataNode() {
				if err := e.cookDataNode(ctx, run.runID, up, map[string]bool{}); err != nil {
					return errors.Trace(err)
				}
			}
		}
	}
	return nil
}

func (e *Executor) computeWithHooks(ctx context.Context, ectx *types.ExecContext, node graph.Node) (*types.ExecutionResult, error) {
	if err := e.hooks.before(ctx, node.ID(), node.Name()); err != nil {
		return nil, errors.Trace(err)
	}

	start := time.Now()
	result, err := node.Compute(ectx)
	e.hooks.after(node.ID(), node.Name(), time.Since(start), err)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if result == nil {
		result = types.NewResult(types.Continue)
	}

	result.SubgraphID = node.ParentID()
	result.NodeID = node.ID()
	result.NodePath = ectx.NodePath
	result.UUID = node.UUID()
	return result, nil
}

func (e *Executor) buildContext(ctx context.Context, runID string, node graph.Node) *types.ExecContext {
	dataInputs := types.Data{}
	controlInputs := types.Data{}
	for _, name := range node.InputNames() {
		port := node.Input(name)
		if port.IsData() {
			dataInputs.Set(name, port.Value())
		} else {
			controlInputs.Set(name, port.Value())
		}
	}

	path, err := e.arena.NodePath(node.ID())
	if err != nil {
		path = ""
	}
	return &types.ExecContext{
		Context:       ctx,
		RunID:         runID,
		SubgraphID:    node.ParentID(),
		NodeID:        node.ID(),
		NodePath:      path,
		DataInputs:    dataInputs,
		ControlInputs: controlInputs,
	}
}

// applyResult writes the result's outputs to the node's own ports and
// marks it clean. Results are always applied in batch order, so the last
// writer to any shared target port is deterministic.
func (e *Executor) applyResult(node graph.Node, result *types.ExecutionResult) {
	for name, value := range result.DataOutputs {
		if port := node.Output(name); port != nil {
			port.SetValue(value)
		}
	}
	for name, value := range result.ControlOutputs {
		if port := node.Output(name); port != nil {
			port.SetValue(value)
		}
	}
	node.MarkClean()
}

// commitResult processes one node's result: loop deferral, control
// propagation, data propagation, commit log.
func (e *Executor) commitResult(run *flowRun, node graph.Node, result *types.ExecutionResult) {
	e.applyResult(node, result)
	if node.IsSubgraph() {
		e.collectTunnelOut(node)
	}

	switch result.Command {
	case types.Wait:
		log.Warnf("run %s: node %s parked on WAIT, external input required", run.runID, node.ID())
		run.parked = append(run.parked, node.ID())
		run.completed = append(run.completed, node.ID())
		return
	case types.LoopAgain:
		run.deferred = append(run.deferred, node.ID())
	}

	for _, port := range node.OutputPorts(types.ControlPort) {
		value, emitted := result.ControlOutputs.Get(port.Name())
		if !emitted || value == nil {
			continue
		}
		edges := e.arena.EdgesOutgoing(node.ID(), port.Name())
		for _, edge := range edges {
			target, err := e.arena.TargetPort(edge.ToNodeID, edge.ToPort)
			if err != nil {
				continue
			}
			target.SetValue(value)
			if target.IsTunnel() {
				e.pushFromPort(target, map[*graph.Port]bool{})
			}
		}
		for _, edge := range edges {
			targetNode, exists := e.arena.Node(edge.ToNodeID)
			if !exists {
				continue
			}
			e.buildFlowStack(run, targetNode)

			// An activation landing on a tunnel must also schedule the
			// terminal sinks on the far side of the boundary.
			target, err := e.arena.TargetPort(edge.ToNodeID, edge.ToPort)
			if err != nil || !target.IsTunnel() {
				continue
			}
			for _, leaf := range e.arena.DownstreamPorts(target, false) {
				if sinkNode, ok := e.arena.Node(leaf.NodeID()); ok {
					e.buildFlowStack(run, sinkNode)
				}
			}
		}
	}

	// Only outputs produced by this result travel; a port still holding an
	// earlier pass's value is not re-sent. Subgraph output tunnels are
	// filled by collectTunnelOut rather than by the result, so all of them
	// are pushed.
	if node.IsSubgraph() {
		e.pushData(node)
	} else {
		for _, port := range node.OutputPorts(types.DataPort) {
			if value, emitted := result.DataOutputs.Get(port.Name()); emitted && value != nil {
				e.pushFromPort(port, map[*graph.Port]bool{})
			}
		}
	}
	run.completed = append(run.completed, node.ID())
}

// buildFlowStack registers a node in pending with its unsatisfied
// dependencies: dirty data ancestors (cooked as a data chain) and dirty
// subgraph ancestors (expanded recursively). A subgraph additionally
// pins its dirty inner children behind itself.
func (e *Executor) buildFlowStack(run *flowRun, node graph.Node) {
	if _, visited := run.pending[node.ID()]; visited {
		return
	}
	run.ensurePending(node.ID())

	for _, name := range node.InputNames() {
		port := node.Input(name)

		if node.IsSubgraph() {
			for _, down := range e.arena.DownstreamNodes(port) {
				if down.IsDirty() {
					if _, exists := run.pending[down.ID()]; !exists {
						run.pending[down.ID()] = []string{node.ID()}
					}
				}
			}
		}

		for _, up := range e.arena.UpstreamNodes(port) {
			if !up.IsDirty() || up.ID() == node.ID() {
				continue
			}
			if up.IsSubgraph() {
				run.addDependency(node.ID(), up.ID())
				e.buildFlowStack(run, up)
			} else if up.IsDataNode() {
				run.addDependency(node.ID(), up.ID())
				e.buildDataStack(run, up)
			}
		}
	}
}

func (e *Executor) buildDataStack(run *flowRun, node graph.Node) {
	if _, visited := run.pending[node.ID()]; visited {
		return
	}
	run.ensurePending(node.ID())

	for _, port := range node.InputPorts(types.DataPort) {
		for _, up := range e.arena.UpstreamNodes(port) {
			if !up.IsDirty() || !up.IsDataNode() {
				continue
			}
			run.addDependency(node.ID(), up.ID())
			e.buildDataStack(run, up)
		}
	}
}

// pushData copies every non-nil data output along its outgoing edges and
// fires the edge hook. Targets may be regular inputs or tunnel ports; a
// tunnel target relays the value onward to the far side of the boundary.
func (e *Executor) pushData(node graph.Node) {
	for _, port := range node.OutputPorts(types.DataPort) {
		if port.Value() == nil {
			continue
		}
		e.pushFromPort(port, map[*graph.Port]bool{})
	}
}

func (e *Executor) pushFromPort(port *graph.Port, visited map[*graph.Port]bool) {
	if visited[port] {
		return
	}
	visited[port] = true

	for _, edge := range e.arena.EdgesOutgoing(port.NodeID(), port.Name()) {
		target, err := e.arena.TargetPort(edge.ToNodeID, edge.ToPort)
		if err != nil {
			continue
		}
		target.SetValue(port.Value())
		if port.IsData() {
			e.hooks.edgeData(edge.FromNodeID, edge.FromPort, edge.ToNodeID, edge.ToPort)
		}
		if target.IsTunnel() {
			e.pushFromPort(target, visited)
		}
	}
}

// propagateTunnelIn relays values sitting on a subgraph's input tunnels
// to the inner children wired to them. Runs before the subgraph computes.
func (e *Executor) propagateTunnelIn(node graph.Node) {
	for _, name := range node.InputNames() {
		port := node.Input(name)
		if !port.IsTunnel() || port.Value() == nil {
			continue
		}
		e.pushFromPort(port, map[*graph.Port]bool{})
	}
}

// collectTunnelOut pulls the latest inner values onto a subgraph's output
// tunnels. Runs after the subgraph computes; pushData then carries the
// values to outer consumers.
func (e *Executor) collectTunnelOut(node graph.Node) {
	for _, name := range node.OutputNames() {
		port := node.Output(name)
		for _, edge := range e.arena.EdgesIncoming(node.ID(), name) {
			source, err := e.arena.SourcePort(edge.FromNodeID, edge.FromPort)
			if err != nil || source.Value() == nil {
				continue
			}
			port.SetValue(source.Value())
		}
	}
}

func (e *Executor) snapshotNodes(run *flowRun, ids []string) {
	for _, id := range utils.UniqueSlice(append([]string{}, ids...)) {
		if node, exists := e.arena.Node(id); exists {
			run.snapshots[id] = node.SerializeState()
		}
	}
}

func (e *Executor) snapshotPending(run *flowRun) {
	for id := range run.pending {
		if node, exists := e.arena.Node(id); exists {
			run.snapshots[id] = node.SerializeState()
		}
	}
}
