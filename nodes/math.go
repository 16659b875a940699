package nodes

import (
	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Add sums its two numeric inputs.
type Add struct {
	*graph.BaseNode
}

func NewAdd(id, name string) (*Add, error) {
	n := &Add{BaseNode: graph.NewBaseNode(id, name, "Add")}
	if _, err := n.AddDataInput("a", types.FloatType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("b", types.FloatType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("sum", types.FloatType); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Add) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	a, _ := ctx.DataInputs.GetFloat64("a")
	b, _ := ctx.DataInputs.GetFloat64("b")
	return types.NewResult(types.Continue).WithData("sum", a+b), nil
}

// Scale multiplies its input by a fixed factor.
type Scale struct {
	*graph.BaseNode

	factor float64
}

func NewScale(id, name string, factor float64) (*Scale, error) {
	n := &Scale{BaseNode: graph.NewBaseNode(id, name, "Scale"), factor: factor}
	if _, err := n.AddDataInput("value", types.FloatType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("result", types.FloatType); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Scale) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	v, _ := ctx.DataInputs.GetFloat64("value")
	return types.NewResult(types.Continue).WithData("result", v*n.factor), nil
}

// Less compares a < b.
type Less struct {
	*graph.BaseNode
}

func NewLess(id, name string) (*Less, error) {
	n := &Less{BaseNode: graph.NewBaseNode(id, name, "Less")}
	if _, err := n.AddDataInput("a", types.FloatType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("b", types.FloatType); err != nil {
		return nil, err
	}
	if _, err := n.AddDataOutput("result", types.BoolType); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Less) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	a, _ := ctx.DataInputs.GetFloat64("a")
	b, _ := ctx.DataInputs.GetFloat64("b")
	return types.NewResult(types.Continue).WithData("result", a < b), nil
}
