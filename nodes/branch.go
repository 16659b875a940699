package nodes

import (
	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// If routes control to then/else based on its cond data input.
type If struct {
	*graph.BaseNode
}

func NewIf(id, name string) (*If, error) {
	n := &If{BaseNode: graph.NewBaseNode(id, name, "If")}
	n.SetFlowControl()

	if _, err := n.AddControlInput("exec"); err != nil {
		return nil, err
	}
	if _, err := n.AddDataInput("cond", types.BoolType); err != nil {
		return nil, err
	}
	if _, err := n.AddControlOutput("then"); err != nil {
		return nil, err
	}
	if _, err := n.AddControlOutput("else"); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *If) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	cond, _ := ctx.DataInputs.GetBool("cond")
	result := types.NewResult(types.Continue)
	if cond {
		result.WithControl("then", true)
	} else {
		result.WithControl("else", true)
	}
	return result, nil
}
