package airportlog

import (
	"errors"
	"log/slog"
	"testing"

	"google.golang.org/grpc"
)

func TestNewServerValidation(t *testing.T) {
	grpcServer := grpc.NewServer()
	defer grpcServer.Stop()

	err := NewServer(grpcServer, ServerConfig{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil engine: got %v, want ErrInvalidConfig", err)
	}

	e := newTestEngine(t, &testSource{}, nil)
	err = NewServer(grpcServer, ServerConfig{Engine: e, MaxMessageSize: -1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative message size: got %v, want ErrInvalidConfig", err)
	}
}

func TestServerOptions(t *testing.T) {
	if got := len(ServerOptions(ServerConfig{})); got != 2 {
		t.Errorf("got %d options, want 2 interceptors", got)
	}
	if got := len(ServerOptions(ServerConfig{MaxMessageSize: 16 << 20})); got != 4 {
		t.Errorf("got %d options, want interceptors and size limits", got)
	}
}

func TestServerConfigLogger(t *testing.T) {
	custom := discardLogger()
	if got := (ServerConfig{Logger: custom}).logger(); got != custom {
		t.Error("expected the configured logger")
	}
	if got := (ServerConfig{}).logger(); got != slog.Default() {
		t.Error("expected slog.Default()")
	}

	level := slog.LevelWarn
	l := (ServerConfig{LogLevel: &level}).logger()
	if l.Enabled(t.Context(), slog.LevelInfo) || !l.Enabled(t.Context(), slog.LevelWarn) {
		t.Error("expected a logger at warn level")
	}
}
