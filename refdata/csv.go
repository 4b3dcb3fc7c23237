package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the OurAirports airports.csv header.
const (
	ColIdent        = "ident"
	ColICAO         = "icao_code"
	ColIATA         = "iata_code"
	ColGPS          = "gps_code"
	ColLocal        = "local_code"
	ColName         = "name"
	ColLatitude     = "latitude_deg"
	ColLongitude    = "longitude_deg"
	ColCountry      = "iso_country"
	ColType         = "type"
	ColMunicipality = "municipality"
	ColRegion       = "iso_region"
)

var requiredColumns = []string{
	ColIdent, ColICAO, ColIATA, ColGPS, ColLocal,
	ColName, ColLatitude, ColLongitude, ColCountry, ColType,
}

var (
	// ErrEmptyDataset is returned when the CSV has no header row.
	ErrEmptyDataset = errors.New("reference dataset is empty")

	// ErrMissingColumn is returned when a required header column is absent.
	ErrMissingColumn = errors.New("reference dataset is missing a required column")
)

// ParseCSV reads an airports.csv stream into a Catalog.
// Columns are located by header name, so extra or reordered columns are fine.
// Short rows are tolerated: missing cells read as empty strings.
func ParseCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	records := make([]Record, 0, 1024)
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		records = append(records, recordFromRow(row, cols))
	}

	return NewCatalog(records), nil
}

// RowValues maps column names to raw string values. Sources that do not read
// CSV (such as a SQL query) build records through FromValues.
type RowValues map[string]string

// FromValues builds a record from raw string values keyed by column name.
func FromValues(v RowValues) Record {
	return Record{
		Ident:          strings.TrimSpace(v[ColIdent]),
		ICAO:           strings.TrimSpace(v[ColICAO]),
		IATA:           strings.TrimSpace(v[ColIATA]),
		Local:          strings.TrimSpace(v[ColLocal]),
		GPS:            strings.TrimSpace(v[ColGPS]),
		Name:           strings.TrimSpace(v[ColName]),
		Latitude:       ParseCoordinate(v[ColLatitude]),
		Longitude:      ParseCoordinate(v[ColLongitude]),
		Country:        strings.ToUpper(strings.TrimSpace(v[ColCountry])),
		Classification: Classification(strings.TrimSpace(v[ColType])),
		Municipality:   strings.TrimSpace(v[ColMunicipality]),
		Region:         strings.TrimSpace(v[ColRegion]),
	}
}

func recordFromRow(row []string, cols map[string]int) Record {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return FromValues(RowValues{
		ColIdent:        cell(ColIdent),
		ColICAO:         cell(ColICAO),
		ColIATA:         cell(ColIATA),
		ColLocal:        cell(ColLocal),
		ColGPS:          cell(ColGPS),
		ColName:         cell(ColName),
		ColLatitude:     cell(ColLatitude),
		ColLongitude:    cell(ColLongitude),
		ColCountry:      cell(ColCountry),
		ColType:         cell(ColType),
		ColMunicipality: cell(ColMunicipality),
		ColRegion:       cell(ColRegion),
	})
}
