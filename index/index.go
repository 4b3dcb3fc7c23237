// Package index maps airport identifier codes to the reference records that
// carry them.
package index

import (
	"sort"
	"strings"

	"github.com/hugr-lab/airportlog/refdata"
)

// Index is a read-only multi-key lookup over a catalog.
// A record is registered under its primary, IATA, local and GPS codes.
// Many records may share a code; collisions are expected.
type Index struct {
	catalog *refdata.Catalog
	codes   map[string][]*refdata.Record
}

// Build registers every record of c under each of its non-empty codes.
// Candidate lists are kept in catalog order regardless of the order records
// were visited, so rebuilding from the same catalog yields identical lists.
func Build(c *refdata.Catalog) *Index {
	idx := &Index{
		catalog: c,
		codes:   make(map[string][]*refdata.Record, c.Len()*2),
	}
	c.Each(func(r *refdata.Record) bool {
		for _, code := range r.Codes() {
			idx.codes[code] = append(idx.codes[code], r)
		}
		return true
	})
	for _, list := range idx.codes {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
	}
	return idx
}

// Catalog returns the catalog the index was built from.
func (idx *Index) Catalog() *refdata.Catalog {
	return idx.catalog
}

// Len returns the number of distinct codes.
func (idx *Index) Len() int {
	return len(idx.codes)
}

// Lookup returns the records registered under code after normalization.
// The returned slice is freshly allocated; callers may reorder it.
func (idx *Index) Lookup(code string) []*refdata.Record {
	code = refdata.NormalizeCode(code)
	if code == "" {
		return nil
	}
	list := idx.codes[code]
	if len(list) == 0 {
		return nil
	}
	out := make([]*refdata.Record, len(list))
	copy(out, list)
	return out
}

// Scheme names an identifier column.
type Scheme int

const (
	SchemePrimary Scheme = iota
	SchemeIATA
	SchemeLocal
	SchemeGPS
)

// Schemes lists the code schemes in match priority order.
var Schemes = []Scheme{SchemePrimary, SchemeIATA, SchemeLocal, SchemeGPS}

func (s Scheme) String() string {
	switch s {
	case SchemePrimary:
		return "primary"
	case SchemeIATA:
		return "iata"
	case SchemeLocal:
		return "local"
	case SchemeGPS:
		return "gps"
	}
	return "unknown"
}

// Code returns the record code under scheme s, normalized.
func (s Scheme) Code(r *refdata.Record) string {
	switch s {
	case SchemePrimary:
		return refdata.NormalizeCode(r.Ident)
	case SchemeIATA:
		return refdata.NormalizeCode(r.IATA)
	case SchemeLocal:
		return refdata.NormalizeCode(r.Local)
	case SchemeGPS:
		return refdata.NormalizeCode(r.GPS)
	}
	return ""
}

// LookupScheme returns the records whose code under scheme s equals code.
func (idx *Index) LookupScheme(code string, s Scheme) []*refdata.Record {
	code = refdata.NormalizeCode(code)
	var out []*refdata.Record
	for _, r := range idx.codes[code] {
		if s.Code(r) == code {
			out = append(out, r)
		}
	}
	return out
}

// SearchName returns records whose display name contains query,
// case-insensitively, in catalog order. An empty query matches nothing.
func (idx *Index) SearchName(query string) []*refdata.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []*refdata.Record
	idx.catalog.Each(func(r *refdata.Record) bool {
		if strings.Contains(strings.ToLower(r.Name), query) {
			out = append(out, r)
		}
		return true
	})
	return out
}
