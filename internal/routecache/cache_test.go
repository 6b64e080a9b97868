package routecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitas-games/freepath/pkg/hex"
)

func TestEncodeDecode(t *testing.T) {
	route := []hex.Direction{hex.West, hex.NorthEast, hex.SouthWest, hex.East}
	s := Encode(route)
	assert.Equal(t, "0253", s)

	back, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, route, back)

	_, err = Decode("019")
	assert.ErrorIs(t, err, ErrCorruptRoute)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "human:1,2:-3,4", Key("human", hex.Axial{Q: 1, R: 2}, hex.Axial{Q: -3, R: 4}))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "a", []hex.Direction{hex.East, hex.East}))
	route, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []hex.Direction{hex.East, hex.East}, route)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "a"))
	assert.Zero(t, c.Len())
}

func TestScopedCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache()
	a := Scoped(store, "world-a")
	b := Scoped(store, "world-b")
	key := Key("human", hex.Axial{Q: 0, R: 0}, hex.Axial{Q: 2, R: 0})

	require.NoError(t, a.Put(ctx, key, []hex.Direction{hex.East, hex.East}))
	_, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "scopes must not share routes")

	route, ok, err := a.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []hex.Direction{hex.East, hex.East}, route)

	_, ok, err = store.Get(ctx, "world-a:"+key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, key))
	assert.Zero(t, store.Len())
	assert.Same(t, store, Scoped(store, ""))
}

type fakeRedis struct {
	data   map[string]string
	ttl    map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := NewRedisCache(client, "route:", time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", []hex.Direction{hex.SouthEast}))
	assert.Equal(t, "4", client.data["route:k"])
	assert.Equal(t, time.Minute, client.ttl["route:k"])

	route, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []hex.Direction{hex.SouthEast}, route)

	client.data["route:bad"] = "x"
	_, _, err = c.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorruptRoute)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.NotContains(t, client.data, "route:k")

	client.setErr = errors.New("connection refused")
	assert.Error(t, c.Put(ctx, "k", nil))
}
