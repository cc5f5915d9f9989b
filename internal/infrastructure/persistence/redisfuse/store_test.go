package redisfuse

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pladderBot/internal/usecase/fuse"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(client)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestIncrementSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := fuse.Key{Network: "n", Channel: "#c", Day: "2024-05-01"}

	n, err := store.Increment(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.Increment(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.Equal(t, keyTTL, mr.TTL(keyPrefix+key.String()))

	mr.FastForward(keyTTL + time.Second)
	n, err = store.Increment(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestFuseOverRedis(t *testing.T) {
	store, _ := newTestStore(t)
	f := fuse.New(store, 2)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	var got []fuse.Result
	for range 5 {
		r, err := f.Run(ctx, now, "n", "c")
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, []fuse.Result{fuse.Open, fuse.Open, fuse.JustBlown, fuse.Blown, fuse.Blown}, got)
}

func TestDialFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
