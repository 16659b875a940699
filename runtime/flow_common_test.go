package runtime

import (
	"sync"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/nodes"
	"github.com/mr-fuzzypants/nodegraph/store"
	"github.com/mr-fuzzypants/nodegraph/store/mem"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// visitLog records compute order across a run. Batch members may compute
// concurrently, so appends are guarded.
type visitLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *visitLog) add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

func (l *visitLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.ids...)
}

func (l *visitLog) count(id string) int {
	n := 0
	for _, v := range l.list() {
		if v == id {
			n++
		}
	}
	return n
}

// doubler multiplies its input by two.
type doubler struct {
	*graph.BaseNode

	log *visitLog
}

func newDoubler(t *testing.T, id string, log *visitLog) *doubler {
	n := &doubler{BaseNode: graph.NewBaseNode(id, id, "Doubler"), log: log}
	_, err := n.AddDataInput("in", types.FloatType)
	assert.Nil(t, err)
	_, err = n.AddDataOutput("out", types.FloatType)
	assert.Nil(t, err)
	return n
}

func (n *doubler) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	if n.log != nil {
		n.log.add(n.ID())
	}
	v, _ := ctx.DataInputs.GetFloat64("in")
	return types.NewResult(types.Continue).WithData("out", v*2), nil
}

// faultyCounter behaves like nodes.Counter until it meets failOn while
// armed.
type faultyCounter struct {
	*graph.BaseNode

	armed  bool
	failOn int
	count  int
	last   int
	seen   []int
}

func newFaultyCounter(t *testing.T, id string, failOn int) *faultyCounter {
	n := &faultyCounter{
		BaseNode: graph.NewBaseNode(id, id, "FaultyCounter"),
		armed:    true,
		failOn:   failOn,
		last:     -1,
	}
	n.SetFlowControl()
	_, err := n.AddControlInput("exec")
	assert.Nil(t, err)
	_, err = n.AddDataInput("val", types.IntType)
	assert.Nil(t, err)
	return n
}

func (n *faultyCounter) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	val, _ := ctx.DataInputs.GetInt("val")
	if n.armed && val == n.failOn {
		return nil, errors.Errorf("injected failure at val=%d", val)
	}
	n.count++
	n.last = val
	n.seen = append(n.seen, val)
	return types.NewResult(types.Continue), nil
}

func (n *faultyCounter) SerializeState() types.Data {
	state := n.BaseNode.SerializeState()
	state.Set("private:count", n.count)
	state.Set("private:last", n.last)
	return state
}

func (n *faultyCounter) RestoreState(state types.Data) {
	n.BaseNode.RestoreState(state)
	if v, exists := state.GetInt("private:count"); exists {
		n.count = v
	}
	if v, exists := state.GetInt("private:last"); exists {
		n.last = v
	}
}

func newTestExecutor(arena *graph.Arena, hooks Hooks) *Executor {
	executor, _ := newTestExecutorWithStore(arena, hooks)
	return executor
}

func newTestExecutorWithStore(arena *graph.Arena, hooks Hooks) (*Executor, store.Store) {
	opts := types.NewExecOptions()
	opts.MaxConcurrency = 4
	s := mem.NewMemStore()
	return NewExecutor(arena, s, opts, hooks), s
}

// buildLoopCounter wires the basic loop scenario: Loop(start,end) firing
// a Counter, index feeding val.
func buildLoopCounter(t *testing.T, arena *graph.Arena, start, end int) (*nodes.Loop, *nodes.Counter) {
	loop, err := nodes.NewLoop("loop", "loop")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(loop))
	loop.Input("start").SetValue(start)
	loop.Input("end").SetValue(end)

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))

	_, err = arena.InsertEdge("loop", "index", "counter", "val")
	assert.Nil(t, err)
	_, err = arena.InsertEdge("loop", "loop_body", "counter", "exec")
	assert.Nil(t, err)
	return loop, counter
}
