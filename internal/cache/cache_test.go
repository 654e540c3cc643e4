package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb)
}

func TestCache_NilClientIsNoop(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.SetJSON(ctx, "k", payload{ID: 1}, time.Minute))

	var out payload
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)

	calls := 0
	require.NoError(t, c.Aside(ctx, "k", "", &out, time.Minute, func() error {
		calls++
		out = payload{ID: 2}
		return nil
	}))
	assert.Equal(t, 1, calls)
	c.Invalidate(ctx, "k")
	c.InvalidateGroup(ctx, "g")
}

func TestCache_AsideHitsAfterFirstFetch(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{ID: 7, Name: "go"}
			return nil
		}
	}

	var first payload
	require.NoError(t, c.Aside(ctx, PostDetailKey("7"), PostGroupKey(7), &first, time.Minute, fetch(&first)))
	var second payload
	require.NoError(t, c.Aside(ctx, PostDetailKey("7"), PostGroupKey(7), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCache_AsidePropagatesFetchError(t *testing.T) {
	mr, c := newTestCache(t)

	var out payload
	err := c.Aside(context.Background(), "k", "", &out, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("k"))
}

func TestCache_InvalidateGroupDropsAllVariants(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	for _, lookup := range []string{"7", "hello-world"} {
		var out payload
		require.NoError(t, c.Aside(ctx, PostDetailKey(lookup), PostGroupKey(7), &out, time.Minute, func() error {
			out = payload{ID: 7}
			return nil
		}))
	}
	require.True(t, mr.Exists(PostDetailKey("hello-world")))

	c.InvalidateGroup(ctx, PostGroupKey(7))

	assert.False(t, mr.Exists(PostDetailKey("7")))
	assert.False(t, mr.Exists(PostDetailKey("hello-world")))
	assert.False(t, mr.Exists(PostGroupKey(7)))
}

func TestCache_Strings(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetString(ctx, TokenKey("abc"), "12", time.Minute))
	v, ok, err := c.GetString(ctx, TokenKey("abc"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "12", v)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetString(ctx, TokenKey("abc"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnect_Unreachable(t *testing.T) {
	assert.Nil(t, Connect(context.Background(), "127.0.0.1:1"))
}

func TestOptions(t *testing.T) {
	opts, err := Options("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = Options("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
}
