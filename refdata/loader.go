package refdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrCatalogUnavailable wraps every failure to fetch or parse the reference
// dataset. Loads are not retried internally; the next Load call tries again.
var ErrCatalogUnavailable = errors.New("airport catalog unavailable")

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Source of the reference dataset.
	// REQUIRED.
	Source Source

	// Logger for load events.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// OnLoad is called after every fetch attempt with the record count,
	// elapsed time and error.
	// OPTIONAL.
	OnLoad func(records int, elapsed time.Duration, err error)
}

// Loader owns the reference catalog for the process lifetime.
//
// The catalog is fetched lazily on the first Load and retained until the
// process exits; there is no teardown or refresh. Concurrent callers that
// arrive before the first load completes share the same in-flight fetch.
// Only successful loads are cached.
type Loader struct {
	cfg     LoaderConfig
	logger  *slog.Logger
	group   singleflight.Group
	catalog atomic.Pointer[Catalog]
}

// NewLoader creates a Loader. It does not fetch anything.
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("loader: source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, logger: logger}, nil
}

// Loaded returns the cached catalog, or nil before the first successful load.
func (l *Loader) Loaded() *Catalog {
	return l.catalog.Load()
}

// Load returns the catalog, fetching it on first use.
//
// The fetch itself runs detached from ctx so that one impatient caller cannot
// fail the load for everyone waiting on it; ctx only bounds how long this
// caller waits.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if c := l.catalog.Load(); c != nil {
		return c, nil
	}

	ch := l.group.DoChan("catalog", func() (any, error) {
		if c := l.catalog.Load(); c != nil {
			return c, nil
		}
		return l.fetch(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Catalog), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) fetch(ctx context.Context) (*Catalog, error) {
	name := l.cfg.Source.Name()
	start := time.Now()

	c, err := l.cfg.Source.Fetch(ctx)
	if err == nil && c.Len() == 0 {
		err = ErrEmptyDataset
	}
	elapsed := time.Since(start)

	if l.cfg.OnLoad != nil {
		l.cfg.OnLoad(c.Len(), elapsed, err)
	}

	if err != nil {
		l.logger.Error("catalog load failed", "source", name, "elapsed", elapsed, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, name, err)
	}

	l.catalog.Store(c)
	l.logger.Info("catalog loaded", "source", name, "records", c.Len(), "elapsed", elapsed)
	return c, nil
}
