package runtime

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/nodes"
	"github.com/mr-fuzzypants/nodegraph/types"
)

func TestBasicLoop(t *testing.T) {
	arena := graph.NewArena()
	_, counter := buildLoopCounter(t, arena, 0, 5)

	var cps []*Checkpoint
	executor := newTestExecutor(arena, Hooks{
		Checkpoint: func(cp *Checkpoint) { cps = append(cps, cp) },
	})
	defer executor.Close()

	last, err := executor.CookFlow(context.Background(), "loop")
	assert.Nil(t, err)

	assert.Equal(t, 5, counter.Count())
	assert.Equal(t, 4, counter.Last())

	// one checkpoint per batch: loop and counter alternate, plus the
	// terminal completed pass
	assert.Len(t, cps, 11)
	assert.Empty(t, last.Ready)
	assert.Empty(t, last.Deferred)
	assert.Empty(t, last.Pending)
}

func TestNestedLoops(t *testing.T) {
	arena := graph.NewArena()

	outer, err := nodes.NewLoop("outer", "outer")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(outer))
	outer.Input("start").SetValue(0)
	outer.Input("end").SetValue(3)

	inner, err := nodes.NewLoop("inner", "inner")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(inner))
	inner.Input("start").SetValue(0)
	inner.Input("end").SetValue(2)

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))

	_, err = arena.InsertEdge("outer", "loop_body", "inner", "exec")
	assert.Nil(t, err)
	_, err = arena.InsertEdge("inner", "loop_body", "counter", "exec")
	assert.Nil(t, err)
	_, err = arena.InsertEdge("inner", "index", "counter", "val")
	assert.Nil(t, err)

	peakDeferred := 0
	executor := newTestExecutor(arena, Hooks{
		Checkpoint: func(cp *Checkpoint) {
			if len(cp.Deferred) > peakDeferred {
				peakDeferred = len(cp.Deferred)
			}
		},
	})
	defer executor.Close()

	_, err = executor.CookFlow(context.Background(), "outer")
	assert.Nil(t, err)

	// inner completes all its iterations before the outer advances
	assert.Equal(t, 6, counter.Count())
	assert.Equal(t, 1, counter.Last())
	assert.Equal(t, 2, peakDeferred)
}

func TestNestedLoopProduct(t *testing.T) {
	arena := graph.NewArena()

	outer, err := nodes.NewLoop("outer", "outer")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(outer))
	outer.Input("start").SetValue(0)
	outer.Input("end").SetValue(4)

	inner, err := nodes.NewLoop("inner", "inner")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(inner))
	inner.Input("start").SetValue(0)
	inner.Input("end").SetValue(3)

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))

	_, err = arena.InsertEdge("outer", "loop_body", "inner", "exec")
	assert.Nil(t, err)
	_, err = arena.InsertEdge("inner", "loop_body", "counter", "exec")
	assert.Nil(t, err)

	executor := newTestExecutor(arena, Hooks{})
	defer executor.Close()

	_, err = executor.CookFlow(context.Background(), "outer")
	assert.Nil(t, err)
	assert.Equal(t, 12, counter.Count())
}

func TestLoopPullsDataDependencies(t *testing.T) {
	arena := graph.NewArena()

	// the loop bound comes from a lazy data chain, cooked on demand
	base, err := nodes.NewParam("base", "base", 2, types.IntType)
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(base))
	extra, err := nodes.NewParam("extra", "extra", 1, types.IntType)
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(extra))
	bound, err := nodes.NewAdd("bound", "bound")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(bound))

	loop, err := nodes.NewLoop("loop", "loop")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(loop))
	loop.Input("start").SetValue(0)

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))

	for _, w := range [][4]string{
		{"base", "value", "bound", "a"},
		{"extra", "value", "bound", "b"},
		{"bound", "sum", "loop", "end"},
		{"loop", "index", "counter", "val"},
		{"loop", "loop_body", "counter", "exec"},
	} {
		_, err := arena.InsertEdge(w[0], w[1], w[2], w[3])
		assert.Nil(t, err)
	}

	executor := newTestExecutor(arena, Hooks{})
	defer executor.Close()

	_, err = executor.CookFlow(context.Background(), "loop")
	assert.Nil(t, err)
	assert.Equal(t, 3, counter.Count())
	assert.Equal(t, 2, counter.Last())
}

func TestIfBranch(t *testing.T) {
	run := func(cond bool) (int, int) {
		arena := graph.NewArena()

		flag, err := nodes.NewParam("flag", "flag", cond, types.BoolType)
		assert.Nil(t, err)
		assert.Nil(t, arena.InsertNode(flag))

		branch, err := nodes.NewIf("branch", "branch")
		assert.Nil(t, err)
		assert.Nil(t, arena.InsertNode(branch))

		thenCounter, err := nodes.NewCounter("then_counter", "then_counter")
		assert.Nil(t, err)
		assert.Nil(t, arena.InsertNode(thenCounter))
		elseCounter, err := nodes.NewCounter("else_counter", "else_counter")
		assert.Nil(t, err)
		assert.Nil(t, arena.InsertNode(elseCounter))

		for _, w := range [][4]string{
			{"flag", "value", "branch", "cond"},
			{"branch", "then", "then_counter", "exec"},
			{"branch", "else", "else_counter", "exec"},
		} {
			_, err := arena.InsertEdge(w[0], w[1], w[2], w[3])
			assert.Nil(t, err)
		}

		executor := newTestExecutor(arena, Hooks{})
		defer executor.Close()
		_, err = executor.CookFlow(context.Background(), "branch")
		assert.Nil(t, err)
		return thenCounter.Count(), elseCounter.Count()
	}

	thenCount, elseCount := run(true)
	assert.Equal(t, 1, thenCount)
	assert.Equal(t, 0, elseCount)

	thenCount, elseCount = run(false)
	assert.Equal(t, 0, thenCount)
	assert.Equal(t, 1, elseCount)
}

func TestUnsatisfiedDependency(t *testing.T) {
	arena := graph.NewArena()
	log := &visitLog{}

	// a data cycle feeding a flow node can never resolve
	assert.Nil(t, arena.InsertNode(newDoubler(t, "A", log)))
	assert.Nil(t, arena.InsertNode(newDoubler(t, "B", log)))
	_, err := arena.InsertEdge("A", "out", "B", "in")
	assert.Nil(t, err)
	_, err = arena.InsertEdge("B", "out", "A", "in")
	assert.Nil(t, err)

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))
	_, err = arena.InsertEdge("A", "out", "counter", "val")
	assert.Nil(t, err)

	executor := newTestExecutor(arena, Hooks{})
	defer executor.Close()

	_, err = executor.CookFlow(context.Background(), "counter")
	assert.NotNil(t, err)
	depErr, ok := errors.Cause(err).(*types.DependencyError)
	assert.True(t, ok)
	assert.NotEmpty(t, depErr.Remaining)
}

type waitNode struct {
	*graph.BaseNode
}

func (n *waitNode) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	return types.NewResult(types.Wait), nil
}

func TestWaitParksNode(t *testing.T) {
	arena := graph.NewArena()

	w := &waitNode{BaseNode: graph.NewBaseNode("gate", "gate", "Gate")}
	w.SetFlowControl()
	_, err := w.AddControlInput("exec")
	assert.Nil(t, err)
	_, err = w.AddControlOutput("done")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(w))

	counter, err := nodes.NewCounter("counter", "counter")
	assert.Nil(t, err)
	assert.Nil(t, arena.InsertNode(counter))
	_, err = arena.InsertEdge("gate", "done", "counter", "exec")
	assert.Nil(t, err)

	executor := newTestExecutor(arena, Hooks{})
	defer executor.Close()

	last, err := executor.CookFlow(context.Background(), "gate")
	assert.Nil(t, err)

	// the gate parked: it ran, but nothing downstream fired
	assert.Equal(t, []string{"gate"}, last.Completed)
	assert.Equal(t, 0, counter.Count())
}

func TestBeforeHookAbortsRun(t *testing.T) {
	arena := graph.NewArena()
	_, counter := buildLoopCounter(t, arena, 0, 5)

	executor := newTestExecutor(arena, Hooks{
		Before: func(ctx context.Context, nodeID, nodeName string) error {
			if nodeID == "counter" {
				return errors.New("halted by trace hook")
			}
			return nil
		},
	})
	defer executor.Close()

	_, err := executor.CookFlow(context.Background(), "loop")
	assert.NotNil(t, err)
	computeErr, ok := errors.Cause(err).(*types.ComputeError)
	assert.True(t, ok)
	assert.Equal(t, "counter", computeErr.NodeID)
	assert.Equal(t, 0, counter.Count())
}

func TestEdgeDataHook(t *testing.T) {
	arena := graph.NewArena()
	buildLoopCounter(t, arena, 0, 2)

	edges := [][4]string{}
	executor := newTestExecutor(arena, Hooks{
		EdgeData: func(fromNode, fromPort, toNode, toPort string) {
			edges = append(edges, [4]string{fromNode, fromPort, toNode, toPort})
		},
	})
	defer executor.Close()

	_, err := executor.CookFlow(context.Background(), "loop")
	assert.Nil(t, err)

	// the index edge carried a value on every iteration
	assert.Equal(t, 2, func() int {
		n := 0
		for _, e := range edges {
			if e == [4]string{"loop", "index", "counter", "val"} {
				n++
			}
		}
		return n
	}())
}
