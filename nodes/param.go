package nodes

import (
	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Param is a constant source: a single data output carrying a fixed
// value.
type Param struct {
	*graph.BaseNode

	value any
}

func NewParam(id, name string, value any, valueType types.ValueType) (*Param, error) {
	p := &Param{
		BaseNode: graph.NewBaseNode(id, name, "Parameter"),
		value:    value,
	}
	if _, err := p.AddDataOutput("value", valueType); err != nil {
		return nil, err
	}
	return p, nil
}

// SetParam replaces the constant and dirties the node so dependents
// recompute.
func (p *Param) SetParam(value any) {
	p.value = value
	p.MarkDirty()
}

func (p *Param) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	return types.NewResult(types.Continue).WithData("value", p.value), nil
}

func (p *Param) SerializeState() types.Data {
	state := p.BaseNode.SerializeState()
	state.Set("private:value", p.value)
	return state
}

func (p *Param) RestoreState(state types.Data) {
	p.BaseNode.RestoreState(state)
	if v, exists := state.Get("private:value"); exists {
		p.value = v
	}
}
