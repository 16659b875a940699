package mem

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	assert.Nil(t, s.Set(ctx, "/checkpoint/", "run/000001", []byte("a")))
	assert.Nil(t, s.Set(ctx, "/checkpoint/", "run/000002", []byte("b")))
	assert.Nil(t, s.Set(ctx, "/other/", "run/000001", []byte("c")))

	b, err := s.Get(ctx, "/checkpoint/", "run/000001")
	assert.Nil(t, err)
	assert.Equal(t, []byte("a"), b)

	// unknown keys come back empty, not failed
	b, err = s.Get(ctx, "/checkpoint/", "missing")
	assert.Nil(t, err)
	assert.Nil(t, b)

	keys := map[string]bool{}
	assert.Nil(t, s.List(ctx, "/checkpoint/", func(key string) bool {
		keys[key] = true
		return true
	}))
	assert.Len(t, keys, 2)
	assert.True(t, keys["run/000001"])

	assert.Nil(t, s.Remove(ctx, "/checkpoint/", "run/000001"))
	b, err = s.Get(ctx, "/checkpoint/", "run/000001")
	assert.Nil(t, err)
	assert.Nil(t, b)

	// removing an unknown key is not an error
	assert.Nil(t, s.Remove(ctx, "/checkpoint/", "missing"))
}

func TestMemStoreErrInjection(t *testing.T) {
	boom := errors.New("store down")
	s := NewMemStoreWithErrHandler(func() error { return boom })

	assert.Equal(t, boom, s.Set(context.Background(), "/p/", "k", []byte("v")))
	_, err := s.Get(context.Background(), "/p/", "k")
	assert.Equal(t, boom, err)
}
