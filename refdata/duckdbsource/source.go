// Package duckdbsource reads the airport reference dataset through DuckDB,
// either from a table in a database file or straight from a CSV file with
// read_csv.
package duckdbsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/airportlog/refdata"
)

var columns = []string{
	refdata.ColIdent, refdata.ColICAO, refdata.ColIATA, refdata.ColGPS,
	refdata.ColLocal, refdata.ColName, refdata.ColLatitude, refdata.ColLongitude,
	refdata.ColCountry, refdata.ColType, refdata.ColMunicipality, refdata.ColRegion,
}

// Config configures a DuckDB-backed source. Exactly one of Table and CSVPath
// must be set.
type Config struct {
	// DSN of the DuckDB database. Empty opens an in-memory database.
	// OPTIONAL.
	DSN string

	// Table holding the dataset, optionally schema-qualified ("ref.airports").
	Table string

	// CSVPath is a file DuckDB reads with read_csv. Any path DuckDB accepts
	// works, including globs and http(s) URLs when httpfs is loaded.
	CSVPath string

	// OrderBy fixes the catalog order for tables without a natural order.
	// OPTIONAL: rows are read in scan order if empty.
	OrderBy string
}

// Source implements refdata.Source on top of DuckDB.
type Source struct {
	db  *sql.DB
	cfg Config
	own bool
}

// Open opens the DuckDB database named by cfg.DSN.
// Close releases it.
func Open(cfg Config) (*Source, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &Source{db: db, cfg: cfg, own: true}, nil
}

// New wraps an already open DuckDB handle. The caller keeps ownership of db.
func New(db *sql.DB, cfg Config) (*Source, error) {
	if db == nil {
		return nil, fmt.Errorf("duckdb source: db is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Source{db: db, cfg: cfg}, nil
}

func validateConfig(cfg Config) error {
	if (cfg.Table == "") == (cfg.CSVPath == "") {
		return fmt.Errorf("duckdb source: exactly one of Table and CSVPath is required")
	}
	return nil
}

// Close closes the database if Open created it.
func (s *Source) Close() error {
	if s.own {
		return s.db.Close()
	}
	return nil
}

// Name implements refdata.Source.
func (s *Source) Name() string {
	if s.cfg.Table != "" {
		return "duckdb:" + s.cfg.Table
	}
	return "duckdb:" + s.cfg.CSVPath
}

// Fetch implements refdata.Source.
func (s *Source) Fetch(ctx context.Context) (*refdata.Catalog, error) {
	rel := s.relation()

	present, err := s.columnSet(ctx, rel)
	if err != nil {
		return nil, err
	}

	exprs := make([]string, len(columns))
	for i, col := range columns {
		if present[col] {
			exprs[i] = fmt.Sprintf("COALESCE(CAST(%s AS VARCHAR), '')", quoteIdent(col))
			continue
		}
		switch col {
		case refdata.ColMunicipality, refdata.ColRegion:
			exprs[i] = "''"
		default:
			return nil, fmt.Errorf("%w: %s", refdata.ErrMissingColumn, col)
		}
	}

	query := "SELECT " + strings.Join(exprs, ", ") + " FROM " + rel
	if s.cfg.OrderBy != "" {
		query += " ORDER BY " + s.cfg.OrderBy
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Name(), err)
	}
	defer rows.Close()

	var records []refdata.Record
	vals := make([]string, len(columns))
	dest := make([]any, len(columns))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		v := make(refdata.RowValues, len(columns))
		for i, col := range columns {
			v[col] = vals[i]
		}
		records = append(records, refdata.FromValues(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}

	return refdata.NewCatalog(records), nil
}

func (s *Source) relation() string {
	if s.cfg.Table != "" {
		parts := strings.Split(s.cfg.Table, ".")
		for i, p := range parts {
			parts[i] = quoteIdent(p)
		}
		return strings.Join(parts, ".")
	}
	return fmt.Sprintf("read_csv(%s, header = true, all_varchar = true)", quoteLiteral(s.cfg.CSVPath))
}

// columnSet returns the lower-cased column names of rel.
func (s *Source) columnSet(ctx context.Context, rel string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+rel+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", s.Name(), err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", s.Name(), err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
