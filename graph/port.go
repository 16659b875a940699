package graph

import (
	log "github.com/sirupsen/logrus"

	"github.com/mr-fuzzypants/nodegraph/types"
)

// Port is a typed connection point on a node. Direction and function are
// fixed at construction; value and dirty flag change over a run. The type
// tag is a soft contract: a non-conforming write logs a diagnostic and
// still lands.
type Port struct {
	nodeID    string
	name      string
	direction types.PortDirection
	function  types.PortFunction
	valueType types.ValueType

	value any
	dirty bool
}

func newPort(nodeID, name string, direction types.PortDirection,
	function types.PortFunction, valueType types.ValueType) *Port {
	return &Port{
		nodeID:    nodeID,
		name:      name,
		direction: direction,
		function:  function,
		valueType: valueType,
		dirty:     true,
	}
}

func (p *Port) NodeID() string                 { return p.nodeID }
func (p *Port) Name() string                   { return p.name }
func (p *Port) Direction() types.PortDirection { return p.direction }
func (p *Port) Function() types.PortFunction   { return p.function }
func (p *Port) Type() types.ValueType          { return p.valueType }

func (p *Port) IsData() bool    { return p.function == types.DataPort }
func (p *Port) IsControl() bool { return p.function == types.ControlPort }
func (p *Port) IsInput() bool   { return p.direction == types.In }
func (p *Port) IsOutput() bool  { return p.direction == types.Out }

// IsTunnel reports whether this is an in-out port relaying values across
// a subgraph boundary.
func (p *Port) IsTunnel() bool { return p.direction == types.InOut }

func (p *Port) Value() any { return p.value }

// SetValue stores the value and clears the dirty flag. Type violations
// are logged, never raised.
func (p *Port) SetValue(value any) {
	p.value = value
	p.dirty = false

	if !p.valueType.Validate(value) {
		log.Warnf("port %s.%s expected %s, got %T", p.nodeID, p.name, p.valueType, value)
	}
}

func (p *Port) MarkDirty() {
	p.dirty = true
}

func (p *Port) MarkClean() {
	p.dirty = false
}

func (p *Port) IsDirty() bool {
	return p.dirty
}

// Activate writes a truthy activation to a control port.
func (p *Port) Activate() {
	p.SetValue(true)
}

func (p *Port) Deactivate() {
	p.SetValue(false)
}

func (p *Port) IsActive() bool {
	return types.Truthy(p.value)
}
