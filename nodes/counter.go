package nodes

import (
	"github.com/spf13/cast"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Counter tallies how often it is fired and remembers the last value it
// saw. Control-driven, but never drives control itself.
type Counter struct {
	*graph.BaseNode

	count int
	last  int
}

func NewCounter(id, name string) (*Counter, error) {
	n := &Counter{BaseNode: graph.NewBaseNode(id, name, "Counter"), last: -1}
	n.SetFlowControl()

	if _, err := n.AddControlInput("exec"); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("val", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("count", types.IntType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("last", types.IntType); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Counter) Count() int { return n.count }
func (n *Counter) Last() int  { return n.last }

func (n *Counter) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	n.count++
	if v, exists := ctx.DataInputs.Get("val"); exists && v != nil {
		n.last = cast.ToInt(v)
	}
	return types.NewResult(types.Continue).
		WithData("count", n.count).
		WithData("last", n.last), nil
}

func (n *Counter) SerializeState() types.Data {
	state := n.BaseNode.SerializeState()
	state.Set("private:count", n.count)
	state.Set("private:last", n.last)
	return state
}

func (n *Counter) RestoreState(state types.Data) {
	n.BaseNode.RestoreState(state)
	if v, exists := state.Get("private:count"); exists {
		n.count = cast.ToInt(v)
	}
	if v, exists := state.Get("private:last"); exists {
		n.last = cast.ToInt(v)
	}
}
