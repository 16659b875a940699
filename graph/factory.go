package graph

import (
	"sort"

	"github.com/juju/errors"
)

// Constructor builds a node of one registered kind.
type Constructor func(id, name string) (Node, error)

// Factory is an explicit node-type lookup table passed into graph
// construction. There is no package-level registry; tests and embedders
// each hold their own.
type Factory struct {
	ctors map[string]Constructor
}

func NewFactory() *Factory {
	return &Factory{ctors: map[string]Constructor{}}
}

func (f *Factory) Register(typeTag string, ctor Constructor) error {
	if ctor == nil {
		return errors.BadRequestf("nil constructor for type %s", typeTag)
	}
	if _, exists := f.ctors[typeTag]; exists {
		return errors.AlreadyExistsf("node type %s", typeTag)
	}
	f.ctors[typeTag] = ctor
	return nil
}

func (f *Factory) Create(typeTag, id, name string) (Node, error) {
	ctor, exists := f.ctors[typeTag]
	if !exists {
		return nil, errors.NotFoundf("node type %s", typeTag)
	}
	node, err := ctor(id, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return node, nil
}

func (f *Factory) Types() []string {
	tags := make([]string, 0, len(f.ctors))
	for tag := range f.ctors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
