package refdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultDatasetURL is the public OurAirports airports.csv mirror.
const DefaultDatasetURL = "https://davidmegginson.github.io/ourairports-data/airports.csv"

// Source fetches and parses the reference dataset.
// Implementations MUST be goroutine-safe; the Loader calls Fetch at most once
// per successful load.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Fetch reads the full dataset.
	Fetch(ctx context.Context) (*Catalog, error)
}

// HTTPSource downloads airports.csv over HTTP.
// URLs ending in .gz or .zst are decompressed before parsing.
type HTTPSource struct {
	// URL of the dataset.
	// REQUIRED.
	URL string

	// Client used for the request.
	// OPTIONAL: Uses http.DefaultClient if nil.
	Client *http.Client
}

// Name implements Source.
func (s *HTTPSource) Name() string {
	return s.URL
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (*Catalog, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("http source: empty URL")
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: %s", s.URL, resp.Status)
	}

	return parseCompressed(s.URL, resp.Body)
}

// FileSource reads airports.csv from the local filesystem.
// Paths ending in .gz or .zst are decompressed before parsing.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s *FileSource) Name() string {
	return s.Path
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (*Catalog, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return parseCompressed(s.Path, f)
}

// parseCompressed picks a decompressor from the name suffix.
func parseCompressed(name string, r io.Reader) (*Catalog, error) {
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}

	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		return ParseCSV(zr)

	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		return ParseCSV(zr)

	default:
		return ParseCSV(r)
	}
}
