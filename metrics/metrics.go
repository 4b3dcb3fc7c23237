// Package metrics exposes Prometheus metrics for catalog loads and airport
// resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec
	Emitted         *prometheus.CounterVec
	Skipped         *prometheus.CounterVec
	CatalogLoads    *prometheus.CounterVec
	CatalogLoadTime prometheus.Histogram
	CatalogRecords  prometheus.Gauge
	LogbookLegs     prometheus.Counter
	LogbookDropped  prometheus.Counter
}

// New registers the engine metrics on reg.
// Passing prometheus.DefaultRegisterer mirrors promauto's global behaviour.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "airportlog_resolutions_total",
			Help: "Resolutions by mode (single, log) and outcome",
		}, []string{"mode", "outcome"}),
		ResolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "airportlog_resolve_duration_seconds",
			Help:    "Duration of a resolution call, excluding catalog load",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"mode"}),
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "airportlog_log_airports_total",
			Help: "New airports found in flight logs by provenance",
		}, []string{"source"}),
		Skipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "airportlog_log_codes_skipped_total",
			Help: "Flight log codes that produced no airport, by reason",
		}, []string{"reason"}),
		CatalogLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "airportlog_catalog_loads_total",
			Help: "Reference catalog fetch attempts by result",
		}, []string{"result"}),
		CatalogLoadTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "airportlog_catalog_load_duration_seconds",
			Help:    "Duration of reference catalog fetch and parse",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CatalogRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "airportlog_catalog_records",
			Help: "Records in the loaded reference catalog",
		}),
		LogbookLegs: f.NewCounter(prometheus.CounterOpts{
			Name: "airportlog_logbook_legs_total",
			Help: "Legs read from uploaded logbooks",
		}),
		LogbookDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "airportlog_logbook_rows_dropped_total",
			Help: "Logbook rows dropped for missing date, origin or destination",
		}),
	}
}

// ObserveCatalogLoad records one fetch attempt.
func (m *Metrics) ObserveCatalogLoad(records int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.CatalogLoadTime.Observe(elapsed.Seconds())
	if err != nil {
		m.CatalogLoads.WithLabelValues("error").Inc()
		return
	}
	m.CatalogLoads.WithLabelValues("ok").Inc()
	m.CatalogRecords.Set(float64(records))
}

// ObserveResolution records a finished resolution.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResolution(mode, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(mode, outcome).Inc()
	m.ResolveDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// AddEmitted counts n airports found through source.
func (m *Metrics) AddEmitted(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Emitted.WithLabelValues(source).Add(float64(n))
}

// AddSkipped counts n codes skipped for reason.
func (m *Metrics) AddSkipped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Skipped.WithLabelValues(reason).Add(float64(n))
}

// ObserveLogbook records a parsed logbook upload.
func (m *Metrics) ObserveLogbook(legs, dropped int) {
	if m == nil {
		return
	}
	m.LogbookLegs.Add(float64(legs))
	m.LogbookDropped.Add(float64(dropped))
}
