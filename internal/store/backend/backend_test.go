package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/apperr"
	"hostel/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func withOpener(t *testing.T, name string, o opener) {
	t.Helper()
	prev := openers[name]
	openers[name] = o
	t.Cleanup(func() { openers[name] = prev })
}

func TestFallbackToFixtures(t *testing.T) {
	withOpener(t, "mongo", func(context.Context, Options) (store.Store, error) {
		return nil, apperr.Unavailable(errors.New("connection refused"))
	})
	ctx := context.Background()

	opened, err := Open(ctx, Options{Backend: "mongo", FixtureFallback: true, Location: time.UTC}, discard)
	require.NoError(t, err)
	assert.Equal(t, ModeDegraded, opened.Mode)
	assert.Equal(t, "memory", opened.Store.Name())

	rooms, err := opened.Store.Rooms().List(ctx, store.RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, rooms, 6)
}

func TestNoFallbackWhenDisabled(t *testing.T) {
	withOpener(t, "postgres", func(context.Context, Options) (store.Store, error) {
		return nil, apperr.Unavailable(errors.New("connection refused"))
	})

	_, err := Open(context.Background(), Options{Backend: "postgres"}, discard)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestOtherErrorsAreNotMasked(t *testing.T) {
	boom := errors.New("bad schema")
	withOpener(t, "postgres", func(context.Context, Options) (store.Store, error) {
		return nil, boom
	})

	_, err := Open(context.Background(), Options{Backend: "postgres", FixtureFallback: true}, discard)
	assert.ErrorIs(t, err, boom)
}

func TestMemoryBackendIsConnected(t *testing.T) {
	opened, err := Open(context.Background(), Options{Backend: "memory", Location: time.UTC}, discard)
	require.NoError(t, err)
	assert.Equal(t, ModeConnected, opened.Mode)
}

func TestUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "sqlite"}, discard)
	assert.Error(t, err)
}
