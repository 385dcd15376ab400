//nolint:thelper // ok for tests
package loadercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-racing/pitwall/pkg/utils/cache"
)

func TestLoaderCache_GetLoadsOnce(t *testing.T) {
	ctx := context.Background()
	calls := 0
	c := New(WithLoader(func(key string) (*int, error) {
		calls++
		v := len(key)
		return &v, nil
	}))

	v, err := c.Get(ctx, "alpha")
	assert.NoError(t, err)
	assert.Equal(t, 5, *v)

	_, err = c.Get(ctx, "alpha")
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = c.Get(ctx, "beta")
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoaderCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	calls := 0
	c := New(WithLoader(func(key string) (*int, error) {
		calls++
		return &calls, nil
	}))

	_, err := c.Get(ctx, "alpha")
	assert.NoError(t, err)
	c.Invalidate(ctx, "alpha")
	_, err = c.Get(ctx, "alpha")
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoaderCache_Expiration(t *testing.T) {
	ctx := context.Background()
	calls := 0
	c := New(
		WithExpiration[string, int](time.Nanosecond),
		WithLoader(func(key string) (*int, error) {
			calls++
			return &calls, nil
		}))

	_, err := c.Get(ctx, "alpha")
	assert.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Get(ctx, "alpha")
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoaderCache_NoLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "alpha")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
