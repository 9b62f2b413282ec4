// Package backend opens the store named in the configuration, falling back
// to the in-memory fixtures when allowed.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hostel/internal/apperr"
	"hostel/internal/fixtures"
	"hostel/internal/store"
	"hostel/internal/store/memory"
	"hostel/internal/store/mongostore"
	"hostel/internal/store/postgres"
)

// Storage modes reported by the health endpoint.
const (
	ModeConnected = "connected"
	ModeDegraded  = "degraded"
)

type Options struct {
	Backend         string
	MongoURI        string
	MongoDatabase   string
	DatabaseURL     string
	FixtureFallback bool
	Location        *time.Location
}

// Opened is the store chosen at start-up.
type Opened struct {
	Store store.Store
	Mode  string
}

// opener is swapped in tests.
type opener func(ctx context.Context, opts Options) (store.Store, error)

var openers = map[string]opener{
	"mongo": func(ctx context.Context, o Options) (store.Store, error) {
		return mongostore.Open(ctx, o.MongoURI, o.MongoDatabase)
	},
	"postgres": func(ctx context.Context, o Options) (store.Store, error) {
		return postgres.Open(ctx, o.DatabaseURL)
	},
	"memory": func(ctx context.Context, o Options) (store.Store, error) {
		return seeded(ctx, o)
	},
}

// Open connects to the configured backend. When it is unreachable and
// FixtureFallback is set, an in-memory store holding the sample hostel is
// returned in degraded mode instead. The decision is made once.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Opened, error) {
	open, ok := openers[opts.Backend]
	if !ok {
		return Opened{}, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	s, err := open(ctx, opts)
	if err == nil {
		logger.Info("store connected", "backend", s.Name())
		return Opened{Store: s, Mode: ModeConnected}, nil
	}
	if !opts.FixtureFallback || !errors.Is(err, apperr.ErrUnavailable) {
		return Opened{}, err
	}

	logger.Warn("store unreachable, serving fixture data from memory", "backend", opts.Backend, "err", err)
	mem, ferr := seeded(ctx, opts)
	if ferr != nil {
		return Opened{}, errors.Join(err, ferr)
	}
	return Opened{Store: mem, Mode: ModeDegraded}, nil
}

func seeded(ctx context.Context, opts Options) (store.Store, error) {
	mem := memory.New()
	if _, err := fixtures.Load(ctx, mem, time.Now(), opts.Location); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return mem, nil
}
