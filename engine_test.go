package airportlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hugr-lab/airportlog/logbook"
	"github.com/hugr-lab/airportlog/metrics"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testSource serves a fixed catalog and fails while err is set.
type testSource struct {
	calls atomic.Int32
	err   atomic.Pointer[error]
}

func (s *testSource) Name() string { return "test" }

func (s *testSource) Fetch(context.Context) (*refdata.Catalog, error) {
	s.calls.Add(1)
	if err := s.err.Load(); err != nil {
		return nil, *err
	}
	return refdata.NewCatalog(testRecords()), nil
}

func (s *testSource) fail(err error) {
	if err == nil {
		s.err.Store(nil)
		return
	}
	s.err.Store(&err)
}

func testRecords() []refdata.Record {
	return []refdata.Record{
		{Ident: "KRNT", ICAO: "KRNT", IATA: "RNT", Local: "RNT", Name: "Renton Municipal Airport",
			Latitude: 47.4931, Longitude: -122.2158, Country: "US", Classification: refdata.SmallAirport},
		{Ident: "KPAE", ICAO: "KPAE", IATA: "PAE", Local: "PAE", Name: "Snohomish County (Paine Field) Airport",
			Latitude: 47.9063, Longitude: -122.282, Country: "US", Classification: refdata.MediumAirport},
		{Ident: "YPAE", Local: "PAE", Name: "Paea Station",
			Latitude: -25.1, Longitude: 130.2, Country: "AU", Classification: refdata.SmallAirport},
		{Ident: "KBFI", ICAO: "KBFI", IATA: "BFI", Name: "Boeing Field King County International Airport",
			Latitude: 47.53, Longitude: -122.302, Country: "US", Classification: refdata.MediumAirport},
		{Ident: "US-0001", Local: "NOL", Name: "Nowhere Strip",
			Latitude: math.NaN(), Longitude: math.NaN(), Country: "US", Classification: refdata.SmallAirport},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, src refdata.Source, m *metrics.Metrics) *Engine {
	t.Helper()
	e, err := NewEngineBuilder().
		Source(src).
		DomesticCountry("US").
		Metrics(m).
		Logger(discardLogger()).
		Clock(func() time.Time { return testNow }).
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return e
}

func TestEngineResolveOne(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, &testSource{}, m)
	ctx := context.Background()

	out, err := e.ResolveOne(ctx, resolve.Query{Input: "krnt", Kind: resolve.KindVisited})
	if err != nil {
		t.Fatalf("ResolveOne() failed: %v", err)
	}
	if out.State != resolve.StateResolved || out.Airport == nil {
		t.Fatalf("got %+v, want a resolved airport", out)
	}
	if out.Airport.Code != "KRNT" || out.Airport.DateVisited != "2026-03-14" {
		t.Errorf("unexpected airport %+v", out.Airport)
	}

	out, err = e.ResolveOne(ctx, resolve.Query{
		Input: "KRNT",
		Known: resolve.NewKnownSet(resolve.Membership{Code: "KRNT", Kind: resolve.KindVisited}),
	})
	if err != nil {
		t.Fatalf("ResolveOne() failed: %v", err)
	}
	if !out.AlreadyPresent || out.Airport != nil {
		t.Errorf("expected already present, got %+v", out)
	}

	if _, err := e.ResolveOne(ctx, resolve.Query{Input: "BFI"}); err != nil {
		t.Fatalf("ResolveOne() failed: %v", err)
	}

	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues(modeSingle, "resolved")); got != 1 {
		t.Errorf("resolved count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues(modeSingle, "already_present")); got != 1 {
		t.Errorf("already_present count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Skipped.WithLabelValues(string(resolve.ReasonWaypointCollision))); got != 1 {
		t.Errorf("waypoint count = %v, want 1", got)
	}
}

func TestEngineCatalogUnavailable(t *testing.T) {
	src := &testSource{}
	src.fail(errors.New("connection refused"))
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, src, m)
	ctx := context.Background()

	_, err := e.ResolveOne(ctx, resolve.Query{Input: "KRNT"})
	if !errors.Is(err, refdata.ErrCatalogUnavailable) {
		t.Fatalf("got %v, want ErrCatalogUnavailable", err)
	}
	if _, err := e.ResolveLog(ctx, []resolve.Leg{{From: "KRNT", To: "KPAE"}}, nil); !errors.Is(err, refdata.ErrCatalogUnavailable) {
		t.Fatalf("ResolveLog: got %v, want ErrCatalogUnavailable", err)
	}
	if _, err := e.Stats(ctx); !errors.Is(err, refdata.ErrCatalogUnavailable) {
		t.Fatalf("Stats: got %v, want ErrCatalogUnavailable", err)
	}
	if got := testutil.ToFloat64(m.CatalogLoads.WithLabelValues("error")); got != 3 {
		t.Errorf("failed loads = %v, want 3", got)
	}

	// The failure is not cached.
	src.fail(nil)
	out, err := e.ResolveOne(ctx, resolve.Query{Input: "KRNT"})
	if err != nil {
		t.Fatalf("ResolveOne() after recovery failed: %v", err)
	}
	if out.State != resolve.StateResolved {
		t.Errorf("got state %s, want resolved", out.State)
	}
	if got := testutil.ToFloat64(m.CatalogRecords); got != 5 {
		t.Errorf("catalog records = %v, want 5", got)
	}
}

func TestEngineResolverBuiltOnce(t *testing.T) {
	src := &testSource{}
	e := newTestEngine(t, src, nil)
	ctx := context.Background()

	r1, err := e.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver() failed: %v", err)
	}
	r2, err := e.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver() failed: %v", err)
	}
	if r1 != r2 {
		t.Error("expected the resolver to be reused")
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source fetched %d times, want 1", got)
	}
	if e.Loader().Loaded() == nil {
		t.Error("expected the loader to hold the catalog")
	}
}

func TestEngineResolveLog(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, &testSource{}, m)

	legs := []resolve.Leg{
		{Date: "2025-06-01", From: "KRNT", To: "KPAE", Route: "KRNT NOPE KPAE"},
		{Date: "2025-06-02", From: "KPAE", To: "KBFI"},
	}
	res, err := e.ResolveLog(context.Background(), legs, resolve.NewCodeSet("KBFI"))
	if err != nil {
		t.Fatalf("ResolveLog() failed: %v", err)
	}

	var got []string
	for _, a := range res.Airports {
		got = append(got, a.Code)
	}
	if strings.Join(got, ",") != "KRNT,KPAE" {
		t.Errorf("got airports %v, want [KRNT KPAE]", got)
	}
	if res.Stats.Known != 1 || res.Stats.Unresolved != 1 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if got := testutil.ToFloat64(m.Emitted.WithLabelValues(string(resolve.FromOrigin))); got != 1 {
		t.Errorf("origin airports = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Skipped.WithLabelValues("known")); got != 1 {
		t.Errorf("known skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues(modeLog, "ok")); got != 1 {
		t.Errorf("log resolutions = %v, want 1", got)
	}
}

const testExport = `ForeFlight Logbook Import,This row is required for importing into ForeFlight. Do not delete or modify.
,
Flights Table,,,,
Date,AircraftID,From,To,Route,TotalTime
2025-06-01,N12345,KRNT,KPAE,,1.2
2025-06-02,N12345,KPAE,KBFI,,0.6
2025-06-03,N12345,KBFI,,,0.4
2025-06-04,N12345,KBFI,NOL,,0.9
`

func TestEngineImportLogbook(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, &testSource{}, m)

	imp, err := e.ImportLogbook(context.Background(), strings.NewReader(testExport), nil)
	if err != nil {
		t.Fatalf("ImportLogbook() failed: %v", err)
	}
	if imp.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", imp.Dropped)
	}
	if len(imp.Airports) != 4 {
		t.Fatalf("got %d airports, want 4", len(imp.Airports))
	}
	if !imp.HasBounds {
		t.Fatal("expected bounds")
	}
	// The airport without coordinates does not widen the box.
	if imp.Bounds.Min.Lat() != 47.4931 || imp.Bounds.Max.Lat() != 47.9063 {
		t.Errorf("unexpected bounds %v", imp.Bounds)
	}
	if imp.Bounds.Min.Lon() != -122.302 || imp.Bounds.Max.Lon() != -122.2158 {
		t.Errorf("unexpected bounds %v", imp.Bounds)
	}
	if got := testutil.ToFloat64(m.LogbookLegs); got != 3 {
		t.Errorf("logbook legs = %v, want 3", got)
	}

	_, err = e.ImportLogbook(context.Background(), strings.NewReader("a,b\n1,2\n"), nil)
	if !errors.Is(err, logbook.ErrNoFlightsTable) {
		t.Errorf("got %v, want ErrNoFlightsTable", err)
	}
}

func TestBoundsWithoutLocations(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Error("expected no bounds for no airports")
	}
	a := &resolve.Airport{Code: "NOL"}
	a.Location[0], a.Location[1] = math.NaN(), math.NaN()
	if _, ok := Bounds([]*resolve.Airport{a}); ok {
		t.Error("expected no bounds for airports without coordinates")
	}
}

func TestEngineStats(t *testing.T) {
	e := newTestEngine(t, &testSource{}, nil)

	s, err := e.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if s.Records != 5 || s.Located != 4 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.ByClassification[refdata.MediumAirport] != 2 {
		t.Errorf("medium airports = %d, want 2", s.ByClassification[refdata.MediumAirport])
	}
	if s.Codes == 0 {
		t.Error("expected indexed codes")
	}
}
