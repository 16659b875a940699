package graph

import (
	"github.com/juju/errors"

	"github.com/mr-fuzzypants/nodegraph/types"
)

// Subgraph is a node that contains other nodes. Its ports are all in-out
// tunnels: an input tunnel receives a value from the outer scope and acts
// as a source for inner children; an output tunnel collects an inner
// child's output and acts as a source for outer consumers. The executor
// does the relaying.
type Subgraph struct {
	*BaseNode

	arena *Arena
}

func NewSubgraph(id, name string, arena *Arena) *Subgraph {
	s := &Subgraph{
		BaseNode: NewBaseNode(id, name, "Subgraph"),
		arena:    arena,
	}
	s.SetFlowControl()
	return s
}

func (s *Subgraph) IsSubgraph() bool { return true }

func (s *Subgraph) Arena() *Arena { return s.arena }

// AddChild inserts a node into the arena scoped under this subgraph.
func (s *Subgraph) AddChild(node Node) error {
	node.setParentID(s.ID())
	return errors.Trace(s.arena.InsertNode(node))
}

func (s *Subgraph) AddTunnelDataInput(name string, valueType types.ValueType) (*Port, error) {
	return s.addInput(newPort(s.ID(), name, types.InOut, types.DataPort, valueType))
}

func (s *Subgraph) AddTunnelDataOutput(name string, valueType types.ValueType) (*Port, error) {
	return s.addOutput(newPort(s.ID(), name, types.InOut, types.DataPort, valueType))
}

func (s *Subgraph) AddTunnelControlInput(name string) (*Port, error) {
	return s.addInput(newPort(s.ID(), name, types.InOut, types.ControlPort, types.BoolType))
}

func (s *Subgraph) AddTunnelControlOutput(name string) (*Port, error) {
	return s.addOutput(newPort(s.ID(), name, types.InOut, types.ControlPort, types.BoolType))
}

// Compute on a subgraph is a relay point, not a computation: tunneling is
// performed by the executor around this call.
func (s *Subgraph) Compute(ctx *types.ExecContext) (*types.ExecutionResult, error) {
	return types.NewResult(types.Continue), nil
}
