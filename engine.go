package airportlog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/airportlog/index"
	"github.com/hugr-lab/airportlog/internal/recovery"
	"github.com/hugr-lab/airportlog/logbook"
	"github.com/hugr-lab/airportlog/metrics"
	"github.com/hugr-lab/airportlog/rank"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

// Resolution modes used as metric labels.
const (
	modeSingle = "single"
	modeLog    = "log"
)

// Engine resolves airport identifiers against the reference catalog.
//
// The catalog is loaded on first use through the Loader and kept for the
// process lifetime. The index and resolver are built once per loaded
// catalog. All methods are safe for concurrent use.
type Engine struct {
	loader  *refdata.Loader
	ranker  *rank.Ranker
	opts    resolve.Options
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	resolver *resolve.Resolver
}

// Loader returns the catalog loader owned by the engine.
func (e *Engine) Loader() *refdata.Loader {
	return e.loader
}

// Catalog returns the reference catalog, loading it on first use.
func (e *Engine) Catalog(ctx context.Context) (*refdata.Catalog, error) {
	return e.loader.Load(ctx)
}

// Resolver returns the resolver for the loaded catalog.
func (e *Engine) Resolver(ctx context.Context) (*resolve.Resolver, error) {
	c, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resolver == nil || e.resolver.Index().Catalog() != c {
		start := time.Now()
		idx := index.Build(c)
		e.resolver = resolve.New(idx, e.ranker, e.opts)
		e.logger.Info("airport index built",
			"records", c.Len(),
			"codes", idx.Len(),
			"elapsed", time.Since(start),
		)
	}
	return e.resolver, nil
}

// ResolveOne resolves a single typed identifier. The only errors are
// catalog load failures and context cancellation.
func (e *Engine) ResolveOne(ctx context.Context, q resolve.Query) (resolve.Outcome, error) {
	start := time.Now()

	r, err := e.Resolver(ctx)
	if err != nil {
		e.metrics.ObserveResolution(modeSingle, "error", start)
		return resolve.Outcome{}, err
	}

	out, err := recovery.RecoverToValue(e.logger, "ResolveOne", func() (resolve.Outcome, error) {
		return r.ResolveOne(q), nil
	})
	if err != nil {
		e.metrics.ObserveResolution(modeSingle, "error", start)
		return resolve.Outcome{}, err
	}

	label := out.State.String()
	if out.AlreadyPresent {
		label = "already_present"
	}
	e.metrics.ObserveResolution(modeSingle, label, start)
	if out.Reason == resolve.ReasonWaypointCollision {
		e.metrics.AddSkipped(string(out.Reason), 1)
	}

	e.logger.Debug("airport resolved",
		"input", q.Input,
		"kind", q.Kind,
		"state", out.State.String(),
		"code", out.Code,
		"reason", out.Reason,
	)
	return out, nil
}

// ResolveLog resolves the legs of a flight log and returns the airports
// not in existing.
func (e *Engine) ResolveLog(ctx context.Context, legs []resolve.Leg, existing resolve.CodeSet) (resolve.BatchResult, error) {
	start := time.Now()

	r, err := e.Resolver(ctx)
	if err != nil {
		e.metrics.ObserveResolution(modeLog, "error", start)
		return resolve.BatchResult{}, err
	}

	res, err := recovery.RecoverToValue(e.logger, "ResolveLog", func() (resolve.BatchResult, error) {
		return r.ResolveLog(legs, existing), nil
	})
	if err != nil {
		e.metrics.ObserveResolution(modeLog, "error", start)
		return resolve.BatchResult{}, err
	}

	e.metrics.ObserveResolution(modeLog, "ok", start)
	for src, n := range res.Stats.Emitted {
		e.metrics.AddEmitted(string(src), n)
	}
	e.metrics.AddSkipped("unresolved", res.Stats.Unresolved)
	e.metrics.AddSkipped("out_of_context", res.Stats.OutOfContext)
	e.metrics.AddSkipped(string(resolve.ReasonWaypointCollision), res.Stats.Waypoints)
	e.metrics.AddSkipped("known", res.Stats.Known)
	e.metrics.AddSkipped("duplicate", res.Stats.Duplicates)

	e.logger.Debug("flight log resolved",
		"legs", len(legs),
		"airports", len(res.Airports),
		"unresolved", res.Stats.Unresolved,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// Import is the result of ImportLogbook.
type Import struct {
	resolve.BatchResult

	// Dropped counts logbook rows without a date, origin or destination.
	Dropped int

	// Bounds covers the new airports that have coordinates, for focusing a
	// map on the import. It is the zero Bound when none do; check HasBounds.
	Bounds    orb.Bound
	HasBounds bool
}

// ImportLogbook parses a ForeFlight logbook export and resolves its legs.
// Parse errors are returned as is (logbook.ErrNoFlightsTable,
// logbook.ErrMissingColumn).
func (e *Engine) ImportLogbook(ctx context.Context, r io.Reader, existing resolve.CodeSet) (*Import, error) {
	book, err := logbook.Parse(r)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveLogbook(len(book.Legs), book.Dropped)

	res, err := e.ResolveLog(ctx, book.Legs, existing)
	if err != nil {
		return nil, err
	}

	imp := &Import{BatchResult: res, Dropped: book.Dropped}
	imp.Bounds, imp.HasBounds = Bounds(res.Airports)
	return imp, nil
}

// Bounds returns the bounding box of the airports that have coordinates.
func Bounds(airports []*resolve.Airport) (orb.Bound, bool) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, a := range airports {
		if !a.HasLocation() {
			continue
		}
		if !ok {
			b, ok = a.Location.Bound(), true
			continue
		}
		b = b.Extend(a.Location)
	}
	return b, ok
}

// Stats summarizes the loaded catalog and its index.
func (e *Engine) Stats(ctx context.Context) (refdata.Summary, error) {
	r, err := e.Resolver(ctx)
	if err != nil {
		return refdata.Summary{}, err
	}
	idx := r.Index()
	s := refdata.Summarize(idx.Catalog())
	s.Codes = idx.Len()
	return s, nil
}
