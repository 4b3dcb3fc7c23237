// Package rank orders candidate airports for a code.
//
// Scores are additive:
//
//	+50  country is one of the preferred countries
//	+10  country is the domestic country
//	+5   large airport
//	+3   medium airport
//	+1   small airport
//	+20  primary identifier equals the target code
//	-100 closed
//
// Equal scores keep catalog order, so ranking is a total order.
package rank

import (
	"slices"

	"github.com/hugr-lab/airportlog/refdata"
)

// DefaultDomesticCountry is used when a Ranker has no domestic country set.
const DefaultDomesticCountry = "US"

const (
	preferredBonus = 50
	domesticBonus  = 10
	primaryBonus   = 20
	closedPenalty  = -100
)

var classBonus = map[refdata.Classification]int{
	refdata.LargeAirport:  5,
	refdata.MediumAirport: 3,
	refdata.SmallAirport:  1,
	refdata.Closed:        closedPenalty,
}

// Ranker scores candidates. The zero value uses DefaultDomesticCountry.
type Ranker struct {
	// DomesticCountry is the country that gets a bonus without any context.
	DomesticCountry string
}

// New returns a Ranker for the given domestic country.
func New(domestic string) *Ranker {
	return &Ranker{DomesticCountry: domestic}
}

func (rk *Ranker) domestic() string {
	if rk == nil || rk.DomesticCountry == "" {
		return DefaultDomesticCountry
	}
	return rk.DomesticCountry
}

// Score returns the score of r for target under the preferred countries.
func (rk *Ranker) Score(r *refdata.Record, target string, preferred []string) int {
	score := classBonus[r.Classification]
	if len(preferred) > 0 && slices.Contains(preferred, r.Country) {
		score += preferredBonus
	}
	if r.Country == rk.domestic() {
		score += domesticBonus
	}
	if target != "" && refdata.NormalizeCode(r.Ident) == refdata.NormalizeCode(target) {
		score += primaryBonus
	}
	return score
}

// Rank returns candidates best-first in a new slice.
// Ties are broken by catalog order. The input is not modified.
func (rk *Ranker) Rank(candidates []*refdata.Record, target string, preferred []string) []*refdata.Record {
	type scored struct {
		r     *refdata.Record
		score int
	}
	list := make([]scored, len(candidates))
	for i, r := range candidates {
		list[i] = scored{r: r, score: rk.Score(r, target, preferred)}
	}

	slices.SortStableFunc(list, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return a.r.Seq - b.r.Seq
	})

	out := make([]*refdata.Record, len(list))
	for i, s := range list {
		out[i] = s.r
	}
	return out
}

// Best returns the top ranked candidate, or nil for an empty set.
func (rk *Ranker) Best(candidates []*refdata.Record, target string, preferred []string) *refdata.Record {
	if len(candidates) == 0 {
		return nil
	}
	ranked := rk.Rank(candidates, target, preferred)
	return ranked[0]
}
