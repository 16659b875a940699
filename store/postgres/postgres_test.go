package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mr-fuzzypants/nodegraph/store"
)

// getTestConfig reads overrides from POSTGRES_HOST, POSTGRES_PORT,
// POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB.
func getTestConfig() *Config {
	config := DefaultConfig()

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		config.Host = host
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		config.User = user
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		config.Password = password
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		config.Database = db
	}
	return config
}

func skipIfNoPostgres(t *testing.T) store.Store {
	s, err := NewPostgresStore(getTestConfig())
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
		return nil
	}
	return s
}

func closeStore(s store.Store) {
	if closer, ok := s.(interface{ Close() error }); ok {
		closer.Close()
	}
}

func TestPostgresStoreSetAndGet(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	defer closeStore(s)

	ctx := context.Background()
	assert.Nil(t, s.Set(ctx, "/checkpoint/", "run-1/000001", []byte(`{"seq":1}`)))

	b, err := s.Get(ctx, "/checkpoint/", "run-1/000001")
	assert.Nil(t, err)
	assert.Equal(t, []byte(`{"seq":1}`), b)

	// unknown key comes back empty, not an error
	b, err = s.Get(ctx, "/checkpoint/", "run-1/missing")
	assert.Nil(t, err)
	assert.Nil(t, b)

	assert.Nil(t, s.Remove(ctx, "/checkpoint/", "run-1/000001"))
}

func TestPostgresStoreList(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	defer closeStore(s)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		key := fmt.Sprintf("run-list/%06d", i)
		assert.Nil(t, s.Set(ctx, "/checkpoint-list/", key, []byte{byte(i)}))
	}

	keys := []string{}
	assert.Nil(t, s.List(ctx, "/checkpoint-list/", func(key string) bool {
		keys = append(keys, key)
		return true
	}))
	assert.Equal(t, []string{"run-list/000001", "run-list/000002", "run-list/000003"}, keys)

	for i := 1; i <= 3; i++ {
		assert.Nil(t, s.Remove(ctx, "/checkpoint-list/", fmt.Sprintf("run-list/%06d", i)))
	}
}
