// Package refdata holds the static airport reference dataset: the record type,
// the CSV reader, the sources the dataset can be fetched from, and the
// memoized Loader that owns the parsed catalog for the process lifetime.
//
// The dataset follows the OurAirports airports.csv layout. A Catalog is
// immutable once built; every consumer (index, ranker, resolvers, Flight
// tables) reads it without locking.
package refdata

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Classification is the airport type column of the reference dataset.
type Classification string

const (
	LargeAirport  Classification = "large_airport"
	MediumAirport Classification = "medium_airport"
	SmallAirport  Classification = "small_airport"
	Closed        Classification = "closed"
	Heliport      Classification = "heliport"
	SeaplaneBase  Classification = "seaplane_base"
	Balloonport   Classification = "balloonport"
)

// Record is one row of the reference dataset.
// Records are owned by a Catalog and MUST NOT be modified by callers.
type Record struct {
	// Seq is the position of the row in the source dataset.
	// Ranking ties are broken by Seq.
	Seq int `msgpack:"seq"`

	// Ident is the primary identifier (ICAO-style for most airports).
	Ident string `msgpack:"ident"`

	// Alternate identifier schemes. Any of them may be empty.
	ICAO  string `msgpack:"icao,omitempty"`
	IATA  string `msgpack:"iata,omitempty"`
	Local string `msgpack:"local,omitempty"`
	GPS   string `msgpack:"gps,omitempty"`

	Name string `msgpack:"name"`

	// Latitude and Longitude are decimal degrees.
	// Malformed or missing source values are NaN.
	Latitude  float64 `msgpack:"lat"`
	Longitude float64 `msgpack:"lng"`

	Country        string         `msgpack:"country"`
	Classification Classification `msgpack:"type"`
	Municipality   string         `msgpack:"municipality,omitempty"`
	Region         string         `msgpack:"region,omitempty"`
}

// HasLocation reports whether both coordinates are finite.
// Records without a location are still valid for display and ranking.
func (r *Record) HasLocation() bool {
	return isFinite(r.Latitude) && isFinite(r.Longitude)
}

// Location returns the record position as an orb.Point (lng, lat).
// The point carries NaN components when HasLocation is false.
func (r *Record) Location() orb.Point {
	return orb.Point{r.Longitude, r.Latitude}
}

// Codes returns the distinct non-empty normalized identifier codes the record
// is reachable under, in scheme order: primary, IATA, local, GPS.
func (r *Record) Codes() []string {
	codes := make([]string, 0, 4)
	for _, c := range [...]string{r.Ident, r.IATA, r.Local, r.GPS} {
		c = NormalizeCode(c)
		if c == "" {
			continue
		}
		dup := false
		for _, seen := range codes {
			if seen == c {
				dup = true
				break
			}
		}
		if !dup {
			codes = append(codes, c)
		}
	}
	return codes
}

// NormalizeCode trims surrounding whitespace and upper-cases an identifier.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseCoordinate parses a decimal degree string.
// Empty, malformed and non-finite inputs yield NaN rather than zero so callers
// can tell a missing position from the equator or prime meridian.
func ParseCoordinate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return math.NaN()
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Catalog is the immutable, ordered set of reference records.
type Catalog struct {
	records []Record
}

// NewCatalog builds a catalog from records in source order.
// Seq is reassigned to the slice position; the input slice is copied.
func NewCatalog(records []Record) *Catalog {
	own := make([]Record, len(records))
	copy(own, records)
	for i := range own {
		own[i].Seq = i
	}
	return &Catalog{records: own}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// At returns the record at catalog position i.
// The returned pointer is shared and read-only.
func (c *Catalog) At(i int) *Record {
	return &c.records[i]
}

// Each calls fn for every record in catalog order until fn returns false.
func (c *Catalog) Each(fn func(*Record) bool) {
	if c == nil {
		return
	}
	for i := range c.records {
		if !fn(&c.records[i]) {
			return
		}
	}
}
