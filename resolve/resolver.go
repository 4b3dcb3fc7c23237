package resolve

import (
	"time"

	"github.com/hugr-lab/airportlog/index"
	"github.com/hugr-lab/airportlog/rank"
)

// DefaultMaxCandidates caps the candidate list of an Ambiguous outcome.
const DefaultMaxCandidates = 10

// Options tunes a Resolver. The zero value is usable.
type Options struct {
	// MaxCandidates caps Ambiguous candidate lists.
	// OPTIONAL: Defaults to DefaultMaxCandidates.
	MaxCandidates int

	// StrictRouteCodes applies the three-letter waypoint rule of ResolveOne
	// to route tokens as well. Off by default: route tokens are already
	// filtered by the leg's country context.
	// OPTIONAL.
	StrictRouteCodes bool

	// Now supplies today's date for visited airports added without one.
	// OPTIONAL: Defaults to time.Now.
	Now func() time.Time
}

// Resolver resolves identifiers against one index. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	index  *index.Index
	ranker *rank.Ranker
	opts   Options
}

// New creates a Resolver. A nil ranker uses the zero Ranker.
func New(idx *index.Index, ranker *rank.Ranker, opts Options) *Resolver {
	if ranker == nil {
		ranker = &rank.Ranker{}
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{index: idx, ranker: ranker, opts: opts}
}

// Index returns the index the resolver reads.
func (r *Resolver) Index() *index.Index {
	return r.index
}
