package logbook

import (
	"errors"
	"strings"
	"testing"
)

const export = `ForeFlight Logbook Import,This row is required for importing into ForeFlight. Do not delete or modify.
,
Aircraft Table,,,
AircraftID,TypeCode,Year,Make
N12345,C172,1978,Cessna
,
Flights Table,,,,,
Date,AircraftID,From,To,Route,TimeOut,TotalTime
2025-06-01,N12345,KRNT,KPAE,KRNT PAE,08:00,1.2
2025-06-02,N12345,KPAE,KBFI,,09:10,0.6
2025-06-03,N12345,KBFI,,,10:00,0.4
,N12345,KBFI,KRNT,,11:00,0.3
2025-06-04,N12345, KRNT ,"KSAC","KRNT -> SEA -> KSAC",12:00,3.1
`

func TestParse(t *testing.T) {
	log, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if len(log.Legs) != 3 {
		t.Fatalf("got %d legs, want 3", len(log.Legs))
	}
	if log.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", log.Dropped)
	}

	first := log.Legs[0]
	if first.Date != "2025-06-01" || first.From != "KRNT" || first.To != "KPAE" || first.Route != "KRNT PAE" {
		t.Errorf("unexpected first leg %+v", first)
	}
	if log.Legs[1].Route != "" {
		t.Errorf("expected empty route, got %q", log.Legs[1].Route)
	}
	last := log.Legs[2]
	if last.From != "KRNT" || last.Route != "KRNT -> SEA -> KSAC" {
		t.Errorf("unexpected last leg %+v", last)
	}
}

func TestParseWithoutRouteColumn(t *testing.T) {
	data := "Flights Table\nDate,From,To\n2025-01-01,KRNT,KPAE\n"
	log, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(log.Legs) != 1 || log.Legs[0].Route != "" {
		t.Errorf("unexpected legs %+v", log.Legs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no table", "Aircraft Table\nAircraftID\nN1\n", ErrNoFlightsTable},
		{"empty", "", ErrNoFlightsTable},
		{"missing to", "Flights Table\nDate,From,Route\n2025-01-01,KRNT,\n", ErrMissingColumn},
		{"no header", "Flights Table,,\n", ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}
