package airportlog_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hugr-lab/airportlog"
	"github.com/hugr-lab/airportlog/catalog"
	airportflight "github.com/hugr-lab/airportlog/flight"
	"github.com/hugr-lab/airportlog/internal/msgpack"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

const referenceCSV = `"id","ident","type","name","latitude_deg","longitude_deg","elevation_ft","continent","iso_country","iso_region","municipality","scheduled_service","icao_code","iata_code","gps_code","local_code"
1,"KRNT","small_airport","Renton Municipal Airport",47.4931,-122.2158,32,"NA","US","US-WA","Renton","no","KRNT","RNT","KRNT","RNT"
2,"KPAE","medium_airport","Snohomish County (Paine Field) Airport",47.9063,-122.282,608,"NA","US","US-WA","Everett","yes","KPAE","PAE","KPAE","PAE"
3,"KBFI","medium_airport","Boeing Field King County International Airport",47.53,-122.302,21,"NA","US","US-WA","Seattle","no","KBFI","BFI","KBFI","BFI"
`

type csvSource struct{}

func (csvSource) Name() string { return "inline" }

func (csvSource) Fetch(context.Context) (*refdata.Catalog, error) {
	return refdata.ParseCSV(strings.NewReader(referenceCSV))
}

type testServer struct {
	client flight.FlightServiceClient
	stop   func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := airportlog.NewEngineBuilder().
		Source(csvSource{}).
		Logger(logger).
		Clock(func() time.Time { return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) }).
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	config := airportlog.ServerConfig{
		Engine:         engine,
		Allocator:      memory.NewGoAllocator(),
		Logger:         logger,
		MaxMessageSize: 16 << 20,
	}
	grpcServer := grpc.NewServer(airportlog.ServerOptions(config)...)
	if err := airportlog.NewServer(grpcServer, config); err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	return &testServer{
		client: flight.NewFlightServiceClient(conn),
		stop: func() {
			conn.Close()
			grpcServer.Stop()
		},
	}
}

func TestIntegrationResolveAirport(t *testing.T) {
	server := newTestServer(t)
	defer server.stop()

	body, err := msgpack.Encode(airportflight.ResolveRequest{Input: "paine"})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	stream, err := server.client.DoAction(context.Background(), &flight.Action{
		Type: airportflight.ActionResolveAirport,
		Body: body,
	})
	if err != nil {
		t.Fatalf("DoAction() failed: %v", err)
	}
	result, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}

	var rep resolve.Report
	if err := msgpack.Decode(result.Body, &rep); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if rep.State != "resolved" || rep.Code != "KPAE" {
		t.Fatalf("got %s/%s, want resolved/KPAE", rep.State, rep.Code)
	}
	if rep.Airport == nil || rep.Airport.DateVisited != "2026-03-14" {
		t.Errorf("unexpected airport %+v", rep.Airport)
	}
}

func TestIntegrationScanAirports(t *testing.T) {
	server := newTestServer(t)
	defer server.stop()
	ctx := context.Background()

	list, err := server.client.ListFlights(ctx, &flight.Criteria{})
	if err != nil {
		t.Fatalf("ListFlights() failed: %v", err)
	}
	info, err := list.Recv()
	if err != nil {
		t.Fatalf("Recv() failed: %v", err)
	}
	if len(info.Endpoint) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(info.Endpoint))
	}

	stream, err := server.client.DoGet(ctx, info.Endpoint[0].Ticket)
	if err != nil {
		t.Fatalf("DoGet() failed: %v", err)
	}
	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		t.Fatalf("NewRecordReader() failed: %v", err)
	}
	defer reader.Release()

	if got, want := reader.Schema().NumFields(), catalog.AirportsSchema.NumFields(); got != want {
		t.Errorf("got %d fields, want %d", got, want)
	}

	var idents []string
	for reader.Next() {
		col := reader.RecordBatch().Column(1).(*array.String)
		for i := 0; i < col.Len(); i++ {
			idents = append(idents, col.Value(i))
		}
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
	if strings.Join(idents, ",") != "KRNT,KPAE,KBFI" {
		t.Errorf("got %v", idents)
	}
}
