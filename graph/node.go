package graph

import (
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/mr-fuzzypants/nodegraph/types"
)

const (
	stateInPrefix      = "in:"
	stateOutPrefix     = "out:"
	statePrivatePrefix = "private:"
)

// Node is the computation unit the executor schedules. Compute must only
// read its ExecContext and write its own output ports (through the
// returned result); it must never touch the arena or foreign nodes.
type Node interface {
	ID() string
	Name() string
	TypeTag() string
	ParentID() string
	setParentID(id string)
	UUID() string

	Inputs() map[string]*Port
	Outputs() map[string]*Port
	InputNames() []string
	OutputNames() []string
	Input(name string) *Port
	Output(name string) *Port
	InputPorts(restrictTo types.PortFunction) []*Port
	OutputPorts(restrictTo types.PortFunction) []*Port

	IsFlowControl() bool
	IsSubgraph() bool
	IsDataNode() bool

	IsDirty() bool
	MarkDirty()
	MarkClean()

	Compute(ctx *types.ExecContext) (*types.ExecutionResult, error)

	// SerializeState captures all port values plus node-private fields
	// under in:/out:/private: namespaced keys. Used only for
	// checkpoint/resume.
	SerializeState() types.Data
	RestoreState(state types.Data)
}

// BaseNode carries identity, port bags and dirty state. Node kinds embed
// it and add Compute.
type BaseNode struct {
	id       string
	name     string
	typeTag  string
	parentID string
	uuid     string

	inputs      map[string]*Port
	outputs     map[string]*Port
	inputOrder  []string
	outputOrder []string

	flowControl bool
	dirty       bool
}

func NewBaseNode(id, name, typeTag string) *BaseNode {
	return &BaseNode{
		id:      id,
		name:    name,
		typeTag: typeTag,
		uuid:    uuid.NewString(),
		inputs:  map[string]*Port{},
		outputs: map[string]*Port{},
		dirty:   true,
	}
}

func (n *BaseNode) ID() string            { return n.id }
func (n *BaseNode) Name() string          { return n.name }
func (n *BaseNode) TypeTag() string       { return n.typeTag }
func (n *BaseNode) ParentID() string      { return n.parentID }
func (n *BaseNode) setParentID(id string) { n.parentID = id }
func (n *BaseNode) UUID() string          { return n.uuid }

func (n *BaseNode) Inputs() map[string]*Port  { return n.inputs }
func (n *BaseNode) Outputs() map[string]*Port { return n.outputs }
func (n *BaseNode) InputNames() []string      { return n.inputOrder }
func (n *BaseNode) OutputNames() []string     { return n.outputOrder }

func (n *BaseNode) Input(name string) *Port  { return n.inputs[name] }
func (n *BaseNode) Output(name string) *Port { return n.outputs[name] }

func (n *BaseNode) IsFlowControl() bool { return n.flowControl }
func (n *BaseNode) IsSubgraph() bool    { return false }
func (n *BaseNode) IsDataNode() bool    { return !n.flowControl }

// SetFlowControl marks the node as a flow-control node: one that may emit
// control outputs or return a non-CONTINUE command.
func (n *BaseNode) SetFlowControl() { n.flowControl = true }

func (n *BaseNode) IsDirty() bool { return n.dirty }

func (n *BaseNode) MarkDirty() {
	if n.dirty {
		return
	}
	n.dirty = true
	for _, port := range n.outputs {
		port.MarkDirty()
	}
}

func (n *BaseNode) MarkClean() {
	n.dirty = false
}

func (n *BaseNode) addInput(port *Port) (*Port, error) {
	if _, exists := n.inputs[port.name]; exists {
		return nil, errors.AlreadyExistsf("input port %s on node %s", port.name, n.id)
	}
	n.inputs[port.name] = port
	n.inputOrder = append(n.inputOrder, port.name)
	return port, nil
}

func (n *BaseNode) addOutput(port *Port) (*Port, error) {
	if _, exists := n.outputs[port.name]; exists {
		return nil, errors.AlreadyExistsf("output port %s on node %s", port.name, n.id)
	}
	n.outputs[port.name] = port
	n.outputOrder = append(n.outputOrder, port.name)
	return port, nil
}

func (n *BaseNode) AddDataInput(name string, valueType types.ValueType) (*Port, error) {
	return n.addInput(newPort(n.id, name, types.In, types.DataPort, valueType))
}

func (n *BaseNode) AddDataOutput(name string, valueType types.ValueType) (*Port, error) {
	return n.addOutput(newPort(n.id, name, types.Out, types.DataPort, valueType))
}

func (n *BaseNode) AddControlInput(name string) (*Port, error) {
	return n.addInput(newPort(n.id, name, types.In, types.ControlPort, types.BoolType))
}

func (n *BaseNode) AddControlOutput(name string) (*Port, error) {
	return n.addOutput(newPort(n.id, name, types.Out, types.ControlPort, types.BoolType))
}

func (n *BaseNode) InputPorts(restrictTo types.PortFunction) []*Port {
	ports := make([]*Port, 0, len(n.inputOrder))
	for _, name := range n.inputOrder {
		if port := n.inputs[name]; port.function == restrictTo {
			ports = append(ports, port)
		}
	}
	return ports
}

func (n *BaseNode) OutputPorts(restrictTo types.PortFunction) []*Port {
	ports := make([]*Port, 0, len(n.outputOrder))
	for _, name := range n.outputOrder {
		if port := n.outputs[name]; port.function == restrictTo {
			ports = append(ports, port)
		}
	}
	return ports
}

func (n *BaseNode) SerializeState() types.Data {
	state := types.Data{}
	for name, port := range n.inputs {
		state.Set(stateInPrefix+name, port.Value())
	}
	for name, port := range n.outputs {
		state.Set(stateOutPrefix+name, port.Value())
	}
	return state
}

func (n *BaseNode) RestoreState(state types.Data) {
	for key, value := range state {
		switch {
		case strings.HasPrefix(key, stateInPrefix):
			if port := n.inputs[strings.TrimPrefix(key, stateInPrefix)]; port != nil {
				port.SetValue(value)
			}
		case strings.HasPrefix(key, stateOutPrefix):
			if port := n.outputs[strings.TrimPrefix(key, stateOutPrefix)]; port != nil {
				port.SetValue(value)
			}
		}
	}
}
