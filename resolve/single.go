package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hugr-lab/airportlog/index"
	"github.com/hugr-lab/airportlog/refdata"
)

var threeLetter = regexp.MustCompile(`^[A-Z]{3}$`)

// Query is one user-typed lookup.
type Query struct {
	// Input is a code or part of an airport name.
	Input string

	// Kind is the list the airport goes to.
	Kind Kind

	// Date is the visit date for visited airports.
	// Empty means today.
	Date string

	// Known holds the caller's existing memberships.
	Known KnownSet
}

type step func(*search) step

// search is the state of one ResolveOne call. Steps run until the outcome
// leaves StateSearching.
type search struct {
	r     *Resolver
	q     Query
	input string
	match *refdata.Record
	out   Outcome
}

// ResolveOne resolves a single typed identifier.
//
// Exact codes win over names: primary, IATA, local and GPS codes are tried in
// that order and the first scheme with any hit decides; several hits within
// one scheme are ranked without country context. Without a code hit the
// input is matched as a case-insensitive substring of airport names. One
// name hit resolves, several are Ambiguous.
//
// A bare three-letter input only resolves to a record whose primary
// identifier is exactly that input. Anything else is assumed to be a radio
// navigation aid sharing the airport's colloquial code and is reported as
// NotFound with ReasonWaypointCollision.
func (r *Resolver) ResolveOne(q Query) Outcome {
	if q.Kind == "" {
		q.Kind = KindVisited
	}
	s := &search{r: r, q: q, out: Outcome{State: StateSearching}}
	for next := step(normalizeStep); next != nil; {
		next = next(s)
	}
	return s.out
}

func normalizeStep(s *search) step {
	s.input = refdata.NormalizeCode(s.q.Input)
	if s.input == "" {
		return s.notFound(ReasonEmptyInput, "Enter an airport code or name.")
	}
	return codeStep
}

func codeStep(s *search) step {
	for _, scheme := range index.Schemes {
		hits := s.r.index.LookupScheme(s.input, scheme)
		if len(hits) > 0 {
			s.match = s.r.ranker.Best(hits, s.input, nil)
			return waypointStep
		}
	}
	return nameStep
}

func nameStep(s *search) step {
	hits := s.r.index.SearchName(s.input)
	switch len(hits) {
	case 0:
		return s.notFound(ReasonNoMatch, fmt.Sprintf("No exact code or name matches for %q.", strings.TrimSpace(s.q.Input)))
	case 1:
		s.match = hits[0]
		return waypointStep
	}

	ranked := s.r.ranker.Rank(hits, s.input, nil)
	if len(ranked) > s.r.opts.MaxCandidates {
		ranked = ranked[:s.r.opts.MaxCandidates]
	}
	s.out.State = StateAmbiguous
	s.out.Candidates = ranked
	s.out.Message = fmt.Sprintf("Multiple matches found for %q. Please select one:", strings.TrimSpace(s.q.Input))
	return nil
}

func waypointStep(s *search) step {
	if threeLetter.MatchString(s.input) && refdata.NormalizeCode(s.match.Ident) != s.input {
		// Keep the rejected match so callers can show what was skipped.
		s.out.Record = s.match
		return s.notFound(ReasonWaypointCollision, fmt.Sprintf(
			"Matched %s (%s), but skipping because %q is likely a VOR waypoint, not the airport itself.",
			s.match.Name, s.match.Ident, s.input))
	}
	return resolvedStep
}

func resolvedStep(s *search) step {
	code := canonicalCode(s.match, s.input)

	s.out.State = StateResolved
	s.out.Code = code
	s.out.Record = s.match

	if s.q.Known.Has(code, s.q.Kind) {
		s.out.AlreadyPresent = true
		s.out.Message = fmt.Sprintf("Airport %s (%s) is already in your %s list.", code, s.match.Name, s.q.Kind)
		return nil
	}

	a := newAirport(s.match, code, s.q.Kind, FromManual)
	a.Notes = fmt.Sprintf("Manually added: %q.", s.q.Input)
	if s.q.Kind == KindVisited {
		a.DateVisited = s.q.Date
		if a.DateVisited == "" {
			a.DateVisited = s.r.opts.Now().Format("2006-01-02")
		}
	}
	s.out.Airport = a
	s.out.Message = fmt.Sprintf("Added %s (%s)", s.match.Name, code)
	return nil
}

func (s *search) notFound(reason Reason, msg string) step {
	s.out.State = StateNotFound
	s.out.Reason = reason
	s.out.Message = msg
	return nil
}

// canonicalCode prefers the code the user typed when it is the record's IATA
// or local code, and the primary identifier otherwise.
func canonicalCode(r *refdata.Record, typed string) string {
	if typed != "" && (refdata.NormalizeCode(r.IATA) == typed || refdata.NormalizeCode(r.Local) == typed) {
		return typed
	}
	if ident := refdata.NormalizeCode(r.Ident); ident != "" {
		return ident
	}
	return typed
}
