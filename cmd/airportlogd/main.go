// Command airportlogd serves airport resolution over Arrow Flight and HTTP.
//
// Every flag has an environment fallback:
//
//	-catalog-url  AIRPORTLOG_CATALOG_URL  airports.csv URL or local path
//	-duckdb       AIRPORTLOG_DUCKDB       DuckDB database holding the dataset (overrides -catalog-url)
//	-duckdb-table AIRPORTLOG_DUCKDB_TABLE table inside the DuckDB database
//	-snapshot     AIRPORTLOG_SNAPSHOT     file caching the parsed dataset
//	-redis-addr   AIRPORTLOG_REDIS_ADDR   Redis server caching the parsed dataset (overrides -snapshot)
//	-flight-addr  AIRPORTLOG_FLIGHT_ADDR  Arrow Flight listen address
//	-http-addr    AIRPORTLOG_HTTP_ADDR    HTTP listen address, empty disables HTTP
//	-domestic     AIRPORTLOG_DOMESTIC     ISO country preferred without other context
//	-log-level    AIRPORTLOG_LOG_LEVEL    debug, info, warn or error
//	-preload      AIRPORTLOG_PRELOAD      load the dataset at startup
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airportlog"
	"github.com/hugr-lab/airportlog/httpapi"
	"github.com/hugr-lab/airportlog/metrics"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/refdata/duckdbsource"
)

type options struct {
	catalogURL  string
	duckDB      string
	duckDBTable string
	snapshot    string
	redisAddr   string
	flightAddr  string
	httpAddr    string
	domestic    string
	logLevel    string
	preload     bool
}

func main() {
	opts := parseFlags(flag.CommandLine, os.Args[1:])

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("airportlogd stopped", "error", err)
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) options {
	var o options
	fs.StringVar(&o.catalogURL, "catalog-url", env("AIRPORTLOG_CATALOG_URL", refdata.DefaultDatasetURL), "airports.csv URL or local path")
	fs.StringVar(&o.duckDB, "duckdb", env("AIRPORTLOG_DUCKDB", ""), "DuckDB database holding the dataset")
	fs.StringVar(&o.duckDBTable, "duckdb-table", env("AIRPORTLOG_DUCKDB_TABLE", "airports"), "table inside the DuckDB database")
	fs.StringVar(&o.snapshot, "snapshot", env("AIRPORTLOG_SNAPSHOT", ""), "file caching the parsed dataset")
	fs.StringVar(&o.redisAddr, "redis-addr", env("AIRPORTLOG_REDIS_ADDR", ""), "Redis server caching the parsed dataset")
	fs.StringVar(&o.flightAddr, "flight-addr", env("AIRPORTLOG_FLIGHT_ADDR", ":50051"), "Arrow Flight listen address")
	fs.StringVar(&o.httpAddr, "http-addr", env("AIRPORTLOG_HTTP_ADDR", ":8080"), "HTTP listen address, empty disables HTTP")
	fs.StringVar(&o.domestic, "domestic", env("AIRPORTLOG_DOMESTIC", "US"), "ISO country preferred without other context")
	fs.StringVar(&o.logLevel, "log-level", env("AIRPORTLOG_LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&o.preload, "preload", envBool("AIRPORTLOG_PRELOAD", false), "load the dataset at startup")
	_ = fs.Parse(args)
	return o
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// newSource picks the dataset source from the options. The returned close
// function releases what the source opened.
func newSource(o options) (refdata.Source, func() error, error) {
	noop := func() error { return nil }

	switch {
	case o.duckDB != "":
		src, err := duckdbsource.Open(duckdbsource.Config{DSN: o.duckDB, Table: o.duckDBTable})
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case strings.HasPrefix(o.catalogURL, "http://"), strings.HasPrefix(o.catalogURL, "https://"):
		return &refdata.HTTPSource{URL: o.catalogURL, Client: &http.Client{Timeout: 2 * time.Minute}}, noop, nil
	case o.catalogURL != "":
		return &refdata.FileSource{Path: o.catalogURL}, noop, nil
	}
	return nil, nil, errors.New("no dataset source configured")
}

// newSnapshotStore returns nil when no cache is configured.
func newSnapshotStore(o options) (refdata.SnapshotStore, func() error) {
	switch {
	case o.redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		return refdata.NewRedisStore(client), client.Close
	case o.snapshot != "":
		return &refdata.FileStore{Path: o.snapshot}, func() error { return nil }
	}
	return nil, func() error { return nil }
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	src, closeSource, err := newSource(o)
	if err != nil {
		return err
	}
	defer closeSource()

	store, closeStore := newSnapshotStore(o)
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b := airportlog.NewEngineBuilder().
		Source(src).
		DomesticCountry(o.domestic).
		Metrics(metrics.New(reg)).
		Logger(logger)
	if store != nil {
		b.SnapshotStore(store)
	}
	engine, err := b.Build()
	if err != nil {
		return err
	}

	config := airportlog.ServerConfig{
		Engine:         engine,
		Logger:         logger,
		MaxMessageSize: 16 << 20,
		Address:        o.flightAddr,
	}
	grpcServer := grpc.NewServer(airportlog.ServerOptions(config)...)
	if err := airportlog.NewServer(grpcServer, config); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if o.preload {
		g.Go(func() error {
			// A failed preload is not fatal; requests retry the load.
			if _, err := engine.Catalog(ctx); err != nil {
				logger.Warn("catalog preload failed", "error", err)
			}
			return nil
		})
	}

	lis, err := net.Listen("tcp", o.flightAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", o.flightAddr, err)
	}
	g.Go(func() error {
		logger.Info("Flight server listening", "address", lis.Addr().String())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		grpcServer.GracefulStop()
		return nil
	})

	if o.httpAddr != "" {
		httpServer := &http.Server{
			Addr: o.httpAddr,
			Handler: httpapi.New(httpapi.Config{
				Engine:   engine,
				Loaded:   func() bool { return engine.Loader().Loaded() != nil },
				Gatherer: reg,
				Logger:   logger,
			}).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP server listening", "address", o.httpAddr)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
