package resolve

import (
	"github.com/hugr-lab/airportlog/refdata"
)

// State is the position of a resolution in its state machine.
//
//	Searching -> Resolved | Ambiguous | NotFound
//
// Every resolution starts in Searching and ends in exactly one terminal state.
type State int

const (
	StateSearching State = iota
	StateResolved
	StateAmbiguous
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateResolved:
		return "resolved"
	case StateAmbiguous:
		return "ambiguous"
	case StateNotFound:
		return "not_found"
	}
	return "unknown"
}

// Reason qualifies a NotFound outcome.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonEmptyInput        Reason = "empty_input"
	ReasonNoMatch           Reason = "no_match"
	ReasonWaypointCollision Reason = "waypoint_collision"
)

// Outcome is the terminal state of a single-query resolution.
type Outcome struct {
	State State

	// Resolved. Record is also set for a waypoint collision.
	Code           string
	Record         *refdata.Record
	AlreadyPresent bool
	// Airport is the new list entry; nil when AlreadyPresent.
	Airport *Airport

	// Ambiguous, ranked best-first.
	Candidates []*refdata.Record

	// NotFound
	Reason Reason

	// Message is a user-facing description of the outcome.
	Message string
}

// Resolved reports whether the outcome is StateResolved.
func (o Outcome) Resolved() bool {
	return o.State == StateResolved
}
