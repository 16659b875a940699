package types

import (
	"context"
)

// ExecutionResult is the standardized return of every node compute. It
// decouples node logic from flow control: the scheduler inspects Command,
// the ports only ever see DataOutputs/ControlOutputs.
type ExecutionResult struct {
	Command ExecCommand `json:"command"`

	DataOutputs    Data `json:"data_outputs,omitempty"`
	ControlOutputs Data `json:"control_outputs,omitempty"`

	// identity side-channel, carried for trace correlation only
	SubgraphID string `json:"subgraph_id,omitempty"`
	NodeID     string `json:"node_id,omitempty"`
	NodePath   string `json:"node_path,omitempty"`
	UUID       string `json:"uuid,omitempty"`
}

func NewResult(command ExecCommand) *ExecutionResult {
	return &ExecutionResult{
		Command:        command,
		DataOutputs:    Data{},
		ControlOutputs: Data{},
	}
}

func (r *ExecutionResult) WithData(name string, value any) *ExecutionResult {
	r.DataOutputs.Set(name, value)
	return r
}

func (r *ExecutionResult) WithControl(name string, value any) *ExecutionResult {
	r.ControlOutputs.Set(name, value)
	return r
}

// ExecContext is the view of the graph a node gets while computing: its
// own identity plus snapshots of its input port values. Nodes must not
// reach past it into the arena.
type ExecContext struct {
	context.Context

	RunID      string
	SubgraphID string
	NodeID     string
	NodePath   string

	DataInputs    Data
	ControlInputs Data
}

func (c *ExecContext) GetRunID() string {
	return c.RunID
}

// ControlActive reports whether the named control input carries a truthy
// activation.
func (c *ExecContext) ControlActive(name string) bool {
	v, exists := c.ControlInputs.Get(name)
	return exists && Truthy(v)
}
