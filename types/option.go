package types

import (
	"context"

	"github.com/mcuadros/go-defaults"
)

func NewExecOptions() *ExecOptions {
	opts := &ExecOptions{Ctx: context.Background()}
	defaults.SetDefaults(opts)
	return opts
}

type ExecOptions struct {
	Ctx context.Context
	/**
	 * default: 8
	 * upper bound on concurrently computing nodes within one batch.
	 */
	MaxConcurrency int `default:"8"`
	/**
	 * default: true, set to false to suppress checkpoint emission
	 * (the checkpoint hook still fires when set).
	 */
	Checkpoints bool `default:"true"`
	/**
	 * default: false, only set it to true when doing testing or developing.
	 */
	MemStore bool `default:"false"`

	// PostgreSQL store configuration.
	// If both MemStore and PostgresConfig are set, PostgresConfig takes precedence.
	PostgresConfig *PostgresConfig
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

type ExecOption func(*ExecOptions)

func WithContext(ctx context.Context) ExecOption {
	return func(opts *ExecOptions) {
		opts.Ctx = ctx
	}
}

func SetMaxConcurrency(concurrency int) ExecOption {
	return func(opts *ExecOptions) {
		opts.MaxConcurrency = concurrency
	}
}

func DisableCheckpoints() ExecOption {
	return func(opts *ExecOptions) {
		opts.Checkpoints = false
	}
}

func EnableMemStore() ExecOption {
	return func(opts *ExecOptions) {
		opts.MemStore = true
	}
}

// WithPostgresConfig configures the engine to persist checkpoints in PostgreSQL
func WithPostgresConfig(config *PostgresConfig) ExecOption {
	return func(opts *ExecOptions) {
		opts.PostgresConfig = config
	}
}
