package resolve

import (
	"slices"

	"github.com/hugr-lab/airportlog/refdata"
)

// ImportNotes is attached to every airport found in a flight log.
const ImportNotes = "Imported from flight log."

// BatchStats counts what happened to the codes of a log.
type BatchStats struct {
	Legs int `json:"legs" msgpack:"legs"`

	// Emitted counts airports per provenance.
	Emitted map[Provenance]int `json:"emitted" msgpack:"emitted"`

	// Unresolved codes had no candidate in the index.
	Unresolved int `json:"unresolved" msgpack:"unresolved"`
	// OutOfContext route codes had candidates, none in the leg's countries.
	OutOfContext int `json:"out_of_context" msgpack:"out_of_context"`
	// Waypoints counts route codes rejected by StrictRouteCodes.
	Waypoints int `json:"waypoints" msgpack:"waypoints"`
	// Known codes were already in the caller's lists.
	Known int `json:"known" msgpack:"known"`
	// Duplicates were emitted earlier in the same batch.
	Duplicates int `json:"duplicates" msgpack:"duplicates"`
}

// BatchResult is the output of ResolveLog.
type BatchResult struct {
	// Airports are the new airports in discovery order.
	Airports []*Airport
	Stats    BatchStats
}

// batch carries the per-call dedup state. It never touches caller input.
type batch struct {
	r        *Resolver
	existing CodeSet
	seen     CodeSet
	res      BatchResult
}

// ResolveLog resolves every leg of a flight log and returns the airports not
// yet in existing. Each canonical code is emitted at most once per call.
//
// Legs are processed in order; within a leg the origin goes first, then the
// destination, then route codes in listed order. The leg's country context is
// the set of countries of its origin and destination, each ranked without
// context. Endpoints are ranked with that context as preference; route codes
// are additionally restricted to context countries (when there are any) and
// never resolve to closed airports.
func (r *Resolver) ResolveLog(legs []Leg, existing CodeSet) BatchResult {
	b := &batch{
		r:        r,
		existing: existing,
		seen:     make(CodeSet),
		res: BatchResult{
			Airports: []*Airport{},
			Stats:    BatchStats{Legs: len(legs), Emitted: map[Provenance]int{}},
		},
	}
	for i := range legs {
		b.leg(&legs[i])
	}
	return b.res
}

func (b *batch) leg(l *Leg) {
	from := refdata.NormalizeCode(l.From)
	to := refdata.NormalizeCode(l.To)
	ctx := b.countryContext(from, to)

	b.endpoint(l, from, ctx, FromOrigin)
	b.endpoint(l, to, ctx, FromDestination)

	for _, tok := range SplitRoute(l.Route) {
		b.route(l, refdata.NormalizeCode(tok), ctx)
	}
}

// countryContext returns the distinct countries of the best untargeted
// matches for the leg endpoints, origin first.
func (b *batch) countryContext(codes ...string) []string {
	var ctx []string
	for _, code := range codes {
		best := b.r.ranker.Best(b.r.index.Lookup(code), code, nil)
		if best == nil || best.Country == "" {
			continue
		}
		if !slices.Contains(ctx, best.Country) {
			ctx = append(ctx, best.Country)
		}
	}
	return ctx
}

func (b *batch) endpoint(l *Leg, code string, ctx []string, src Provenance) {
	if code == "" {
		return
	}
	candidates := b.r.index.Lookup(code)
	if len(candidates) == 0 {
		b.res.Stats.Unresolved++
		return
	}
	b.emit(l, code, b.r.ranker.Best(candidates, code, ctx), src)
}

func (b *batch) route(l *Leg, code string, ctx []string) {
	if code == "" {
		return
	}
	candidates := b.r.index.Lookup(code)
	if len(candidates) == 0 {
		b.res.Stats.Unresolved++
		return
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.Classification == refdata.Closed {
			continue
		}
		if len(ctx) > 0 && !slices.Contains(ctx, c.Country) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		b.res.Stats.OutOfContext++
		return
	}

	best := b.r.ranker.Best(kept, code, ctx)
	if b.r.opts.StrictRouteCodes && threeLetter.MatchString(code) && refdata.NormalizeCode(best.Ident) != code {
		b.res.Stats.Waypoints++
		return
	}
	b.emit(l, code, best, FromRoute)
}

// emit records rec unless it is known or was already emitted. A record is
// matched by its primary identifier as well as by the emitted code, so the
// same airport reached through different schemes is emitted once.
func (b *batch) emit(l *Leg, typed string, rec *refdata.Record, src Provenance) {
	ident := refdata.NormalizeCode(rec.Ident)
	code := canonicalCode(rec, typed)

	if b.existing.Has(ident) || b.existing.Has(code) {
		b.res.Stats.Known++
		return
	}
	if b.seen.Has(ident) || b.seen.Has(code) {
		b.res.Stats.Duplicates++
		return
	}

	a := newAirport(rec, code, KindVisited, src)
	a.DateVisited = l.Date
	a.Notes = ImportNotes
	b.res.Airports = append(b.res.Airports, a)
	b.res.Stats.Emitted[src]++

	b.seen.add(ident)
	b.seen.add(code)
}
