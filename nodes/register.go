package nodes

import (
	"github.com/juju/errors"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// Register installs the built-in node kinds on a factory. Parameter nodes
// come out holding 0; callers adjust via SetParam.
func Register(f *graph.Factory) error {
	builtins := map[string]graph.Constructor{
		"Parameter": func(id, name string) (graph.Node, error) {
			return NewParam(id, name, 0, types.AnyType)
		},
		"Add": func(id, name string) (graph.Node, error) {
			return NewAdd(id, name)
		},
		"Less": func(id, name string) (graph.Node, error) {
			return NewLess(id, name)
		},
		"If": func(id, name string) (graph.Node, error) {
			return NewIf(id, name)
		},
		"Loop": func(id, name string) (graph.Node, error) {
			return NewLoop(id, name)
		},
		"Counter": func(id, name string) (graph.Node, error) {
			return NewCounter(id, name)
		},
		"Log": func(id, name string) (graph.Node, error) {
			return NewLog(id, name)
		},
	}
	for tag, ctor := range builtins {
		if err := f.Register(tag, ctor); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
