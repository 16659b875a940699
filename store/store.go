package store

import "context"

// Store is the persistence surface the executor hangs checkpoints on.
// Keys are namespaced by a path-style prefix so one store can carry many
// runs side by side.
type Store interface {
	Get(ctx context.Context, prefix, key string) ([]byte, error)
	Set(ctx context.Context, prefix, key string, value []byte) error
	/**
	 * Remove a prefix and key
	 * removing an unknown prefix + key does NOT return an error
	 */
	Remove(ctx context.Context, prefix, key string) error

	List(ctx context.Context, prefix string, iterator func(key string) bool) error
}
