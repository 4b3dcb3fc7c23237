// Package resolve turns free-form airport identifiers into reference records.
//
// Resolver.ResolveOne handles one typed string (a code or part of a name) and
// reports an Outcome. Resolver.ResolveLog walks the legs of a flight log and
// returns the airports the caller does not know yet. Both are pure functions
// of the index, the input and the caller's known set; neither mutates its
// arguments.
package resolve

import (
	"math"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/airportlog/refdata"
)

// Kind is the list an airport is recorded under.
type Kind string

const (
	KindVisited  Kind = "visited"
	KindWishlist Kind = "wishlist"
	KindFuel     Kind = "fuel"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindVisited, KindWishlist, KindFuel:
		return true
	}
	return false
}

// ParseKind returns the kind named s. Empty means visited.
func ParseKind(s string) (Kind, bool) {
	if s == "" {
		return KindVisited, true
	}
	k := Kind(s)
	return k, k.Valid()
}

// Provenance tells which field of a trip leg produced an airport.
type Provenance string

const (
	FromOrigin      Provenance = "from"
	FromDestination Provenance = "to"
	FromRoute       Provenance = "route"
	FromManual      Provenance = "manual"
)

// Airport is a freshly resolved airport ready to be stored by the caller.
// It serializes through airportWire; see report.go.
type Airport struct {
	// ID is derived from Kind and Code, so resolving the same airport into
	// the same list twice yields the same ID.
	ID uuid.UUID

	Code     string
	Name     string
	Location orb.Point

	Kind   Kind
	Source Provenance

	// DateVisited is an ISO date, set for visited airports only.
	DateVisited string
	Notes       string

	Ident   string
	Country string
}

// HasLocation reports whether the airport can be placed on a map.
func (a *Airport) HasLocation() bool {
	return !math.IsNaN(a.Location.Lat()) && !math.IsNaN(a.Location.Lon())
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://airportlog.hugr-lab.io/airport"))

// AirportID returns the stable identity of code in a kind list.
func AirportID(kind Kind, code string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(string(kind)+":"+code))
}

func newAirport(r *refdata.Record, code string, kind Kind, src Provenance) *Airport {
	return &Airport{
		ID:       AirportID(kind, code),
		Code:     code,
		Name:     r.Name,
		Location: r.Location(),
		Kind:     kind,
		Source:   src,
		Ident:    r.Ident,
		Country:  r.Country,
	}
}

// Leg is one row of a flight log. From and To are required by the log
// parser; legs missing either never reach the resolver.
type Leg struct {
	Date  string `json:"date" msgpack:"date"`
	From  string `json:"from" msgpack:"from"`
	To    string `json:"to" msgpack:"to"`
	Route string `json:"route,omitempty" msgpack:"route,omitempty"`
}

// Membership is a (code, kind) pair already present in the caller's lists.
type Membership struct {
	Code string `json:"code" msgpack:"code"`
	Kind Kind   `json:"type" msgpack:"type"`
}

// KnownSet is the caller's existing list memberships.
type KnownSet map[Membership]struct{}

// NewKnownSet builds a KnownSet from memberships, normalizing codes.
func NewKnownSet(ms ...Membership) KnownSet {
	s := make(KnownSet, len(ms))
	for _, m := range ms {
		m.Code = refdata.NormalizeCode(m.Code)
		if m.Code != "" {
			s[m] = struct{}{}
		}
	}
	return s
}

// Has reports whether code is already listed under kind.
func (s KnownSet) Has(code string, kind Kind) bool {
	_, ok := s[Membership{Code: refdata.NormalizeCode(code), Kind: kind}]
	return ok
}

// Codes returns the codes of every membership regardless of kind.
func (s KnownSet) Codes() CodeSet {
	out := make(CodeSet, len(s))
	for m := range s {
		out[m.Code] = struct{}{}
	}
	return out
}

// CodeSet is a set of normalized airport codes.
type CodeSet map[string]struct{}

// NewCodeSet builds a CodeSet, normalizing and skipping empty codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s.add(c)
	}
	return s
}

// Has reports whether code is in the set.
func (s CodeSet) Has(code string) bool {
	_, ok := s[refdata.NormalizeCode(code)]
	return ok
}

func (s CodeSet) add(code string) {
	if code = refdata.NormalizeCode(code); code != "" {
		s[code] = struct{}{}
	}
}
