// Package logbook reads trip legs from a ForeFlight logbook CSV export.
//
// The export holds several tables one after another. The flights table starts
// at a row whose first cell contains "Flights Table"; the next row is its
// header. Only the Date, From, To and Route columns are read.
package logbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hugr-lab/airportlog/resolve"
)

const tableMarker = "Flights Table"

// Column headers of the flights table.
const (
	ColDate  = "Date"
	ColFrom  = "From"
	ColTo    = "To"
	ColRoute = "Route"
)

var (
	// ErrNoFlightsTable is returned when the export has no flights table.
	ErrNoFlightsTable = errors.New("could not find Flights Table in the CSV")

	// ErrMissingColumn is returned when the flights header lacks Date, From or To.
	ErrMissingColumn = errors.New("flights table is missing a required column")
)

// Log is the parsed flights table.
type Log struct {
	Legs []resolve.Leg

	// Dropped counts rows without a date, origin or destination.
	Dropped int
}

// Parse reads a logbook export. Rows lacking a date, origin or destination
// are dropped; the Route column is optional.
func Parse(r io.Reader) (*Log, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		inTable bool
		header  map[string]int
		log     = &Log{Legs: []resolve.Leg{}}
	)

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read logbook: %w", err)
		}

		switch {
		case !inTable:
			if len(row) > 0 && strings.Contains(row[0], tableMarker) {
				inTable = true
			}

		case header == nil:
			header, err = headerIndex(row)
			if err != nil {
				return nil, err
			}

		default:
			leg := resolve.Leg{
				Date:  strings.TrimSpace(cell(row, header[ColDate])),
				From:  strings.TrimSpace(cell(row, header[ColFrom])),
				To:    strings.TrimSpace(cell(row, header[ColTo])),
				Route: strings.TrimSpace(cell(row, header[ColRoute])),
			}
			if leg.Date == "" || leg.From == "" || leg.To == "" {
				log.Dropped++
				continue
			}
			log.Legs = append(log.Legs, leg)
		}
	}

	if !inTable {
		return nil, ErrNoFlightsTable
	}
	if header == nil {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	return log, nil
}

func headerIndex(row []string) (map[string]int, error) {
	idx := map[string]int{ColRoute: -1}
	for _, col := range []string{ColDate, ColFrom, ColTo, ColRoute} {
		i := slices.IndexFunc(row, func(h string) bool { return strings.TrimSpace(h) == col })
		if i < 0 {
			if col == ColRoute {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
		idx[col] = i
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
