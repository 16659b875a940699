package nodegraph

import (
	"github.com/juju/errors"

	"github.com/mr-fuzzypants/nodegraph/graph"
	"github.com/mr-fuzzypants/nodegraph/runtime"
	"github.com/mr-fuzzypants/nodegraph/store"
	"github.com/mr-fuzzypants/nodegraph/store/mem"
	"github.com/mr-fuzzypants/nodegraph/store/postgres"
	"github.com/mr-fuzzypants/nodegraph/types"
)

// NewExecutor wires an executor for the arena with the configured
// checkpoint store
func NewExecutor(arena *graph.Arena, hooks runtime.Hooks, opts ...types.ExecOption) (*runtime.Executor, error) {
	options := types.NewExecOptions()
	for _, opt := range opts {
		opt(options)
	}

	var s store.Store
	var err error

	// PostgresConfig takes precedence over MemStore
	if options.PostgresConfig != nil {
		pgConfig := &postgres.Config{
			Host:     options.PostgresConfig.Host,
			Port:     options.PostgresConfig.Port,
			User:     options.PostgresConfig.User,
			Password: options.PostgresConfig.Password,
			Database: options.PostgresConfig.Database,
			SSLMode:  options.PostgresConfig.SSLMode,
		}

		s, err = postgres.NewPostgresStore(pgConfig)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to create PostgreSQL store")
		}
	} else if options.MemStore {
		s = mem.NewMemStore()
	} else {
		// default to the in-memory store if nothing is configured
		s = mem.NewMemStore()
	}

	return runtime.NewExecutor(arena, s, options, hooks), nil
}
