package airportlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hugr-lab/airportlog/metrics"
	"github.com/hugr-lab/airportlog/rank"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

// EngineBuilder builds an Engine using a fluent API.
// Not thread-safe - use only during initialization.
type EngineBuilder struct {
	source   refdata.Source
	store    refdata.SnapshotStore
	domestic string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     resolve.Options
	built    bool
}

// NewEngineBuilder creates a new fluent engine builder.
//
// Example:
//
//	engine, err := airportlog.NewEngineBuilder().
//	    Source(&refdata.HTTPSource{URL: refdata.DefaultDatasetURL}).
//	    SnapshotStore(&refdata.FileStore{Path: "/var/cache/airportlog/catalog.snap"}).
//	    DomesticCountry("US").
//	    Build()
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{}
}

// Source sets where the reference dataset is fetched from.
// REQUIRED.
func (b *EngineBuilder) Source(src refdata.Source) *EngineBuilder {
	b.source = src
	return b
}

// SnapshotStore caches the parsed dataset between process starts.
// OPTIONAL: Without a store every start fetches from Source.
func (b *EngineBuilder) SnapshotStore(store refdata.SnapshotStore) *EngineBuilder {
	b.store = store
	return b
}

// DomesticCountry sets the ISO country code that gets the domestic bonus.
// OPTIONAL: Defaults to rank.DefaultDomesticCountry.
func (b *EngineBuilder) DomesticCountry(code string) *EngineBuilder {
	b.domestic = code
	return b
}

// Metrics records load and resolution metrics.
// OPTIONAL: Nil disables metrics.
func (b *EngineBuilder) Metrics(m *metrics.Metrics) *EngineBuilder {
	b.metrics = m
	return b
}

// Logger sets the engine logger.
// OPTIONAL: Uses slog.Default() if nil.
func (b *EngineBuilder) Logger(logger *slog.Logger) *EngineBuilder {
	b.logger = logger
	return b
}

// MaxCandidates caps ambiguous single-query results.
// OPTIONAL: Defaults to resolve.DefaultMaxCandidates.
func (b *EngineBuilder) MaxCandidates(n int) *EngineBuilder {
	b.opts.MaxCandidates = n
	return b
}

// StrictRouteCodes applies the three-letter waypoint rule to route codes
// of flight logs.
// OPTIONAL: Off by default.
func (b *EngineBuilder) StrictRouteCodes(strict bool) *EngineBuilder {
	b.opts.StrictRouteCodes = strict
	return b
}

// Clock overrides the source of today's date.
// OPTIONAL: Defaults to time.Now.
func (b *EngineBuilder) Clock(now func() time.Time) *EngineBuilder {
	b.opts.Now = now
	return b
}

// Build validates the configuration and returns the Engine.
// It does not load the catalog. Can only be called once.
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: engine already built", ErrInvalidConfig)
	}
	if b.source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if b.domestic != "" && len(b.domestic) != 2 {
		return nil, fmt.Errorf("%w: domestic country must be a two-letter ISO code, got %q", ErrInvalidConfig, b.domestic)
	}
	if b.opts.MaxCandidates < 0 {
		return nil, fmt.Errorf("%w: max candidates must be non-negative", ErrInvalidConfig)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	src := b.source
	if b.store != nil {
		src = &refdata.CachedSource{Source: src, Store: b.store, Logger: logger}
	}

	loader, err := refdata.NewLoader(refdata.LoaderConfig{
		Source: src,
		Logger: logger,
		OnLoad: b.metrics.ObserveCatalogLoad,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	b.built = true
	return &Engine{
		loader:  loader,
		ranker:  rank.New(b.domestic),
		opts:    b.opts,
		metrics: b.metrics,
		logger:  logger,
	}, nil
}
