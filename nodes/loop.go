package nodes

import (
	"github.com/spf13/cast"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Loop iterates index from start to end by step. Each pass emits the
// current index, fires loop_body and returns LOOP_AGAIN so the scheduler
// defers the next pass until the body drains. Exhaustion fires completed
// with COMPLETED.
type Loop struct {
	*graph.BaseNode

	// Iteration state survives checkpoints; active is explicit so a
	// restored zero index is not mistaken for "never started".
	active bool
	index  int
}

func NewLoop(id, name string) (*Loop, error) {
	n := &Loop{BaseNode: graph.NewBaseNode(id, name, "Loop")}
	n.SetFlowControl()

	if _, err := n.AddControlInput("exec"); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("start", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("end", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("step", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("index", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddControlOutput("loop_body"); err != nil {
		return nil, err
	}
	if _, err := n.AddControlOutput("completed"); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Loop) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	start, _ := ctx.DataInputs.GetInt("start")
	end, _ := ctx.DataInputs.GetInt("end")
	step, _ := ctx.DataInputs.GetInt("step")
	if step == 0 {
		step = 1
	}

	if !n.active {
		n.active = true
		n.index = start
	}

	if n.index < end {
		result := types.NewResult(types.LoopAgain).
			WithData("index", n.index).
			WithControl("loop_body", true)
		n.index += step
		return result, nil
	}

	n.active = false
	return types.NewResult(types.Completed).WithControl("completed", true), nil
}

func (n *Loop) SerializeState() types.Data {
	state := n.BaseNode.SerializeState()
	state.Set("private:loop_active", n.active)
	state.Set("private:index", n.index)
	return state
}

func (n *Loop) RestoreState(state types.Data) {
	n.BaseNode.RestoreState(state)
	if v, exists := state.Get("private:loop_active"); exists {
		n.active = cast.ToBool(v)
	}
	if v, exists := state.Get("private:index"); exists {
		n.index = cast.ToInt(v)
	}
}
