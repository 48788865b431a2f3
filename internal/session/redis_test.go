package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/cleanbook/internal/pricing"
	"github.com/wolfman30/cleanbook/internal/wizard"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	ws := wizard.NewStore(pricing.DefaultConfig())
	ws.Dispatch(wizard.SetFullName{Name: "Jane Doe"})
	ws.Dispatch(wizard.SetLocation{
		Address:     "Villa 23, Al Wasl",
		Coordinates: &wizard.Coordinates{Latitude: 25.19, Longitude: 55.25},
	})
	sess := New(ws.State())

	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.State.FullName)
	require.NotNil(t, got.State.Coordinates)
	assert.Equal(t, 25.19, got.State.Coordinates.Latitude)
	assert.Equal(t, wizard.StepService, got.State.Step)
}

func TestRedisGetUnknown(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	sess := New(wizard.NewStore(pricing.DefaultConfig()).State())
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	sess := New(wizard.NewStore(pricing.DefaultConfig()).State())
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess := New(wizard.NewStore(pricing.DefaultConfig()).State())
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	// Mutating the returned copy must not leak back into the store.
	got.State.FullName = "changed"
	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, again.State.FullName)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
