package resolve

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/airportlog/refdata"
)

// airportWire is the serialized form of Airport. Coordinates are flattened
// and omitted when unknown, since NaN has no JSON encoding.
type airportWire struct {
	ID          string     `json:"id" msgpack:"id"`
	Code        string     `json:"code" msgpack:"code"`
	Name        string     `json:"name" msgpack:"name"`
	Kind        Kind       `json:"type" msgpack:"type"`
	Source      Provenance `json:"source,omitempty" msgpack:"source,omitempty"`
	DateVisited string     `json:"date_visited,omitempty" msgpack:"date_visited,omitempty"`
	Notes       string     `json:"notes,omitempty" msgpack:"notes,omitempty"`
	Ident       string     `json:"ident" msgpack:"ident"`
	Country     string     `json:"country" msgpack:"country"`
	Latitude    *float64   `json:"latitude,omitempty" msgpack:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty" msgpack:"longitude,omitempty"`
}

func (a *Airport) wire() airportWire {
	w := airportWire{
		ID:          a.ID.String(),
		Code:        a.Code,
		Name:        a.Name,
		Kind:        a.Kind,
		Source:      a.Source,
		DateVisited: a.DateVisited,
		Notes:       a.Notes,
		Ident:       a.Ident,
		Country:     a.Country,
	}
	if a.HasLocation() {
		lat, lng := a.Location.Lat(), a.Location.Lon()
		w.Latitude, w.Longitude = &lat, &lng
	}
	return w
}

func (a *Airport) fromWire(w airportWire) error {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return fmt.Errorf("airport %s: %w", w.Code, err)
	}
	*a = Airport{
		ID:          id,
		Code:        w.Code,
		Name:        w.Name,
		Location:    orb.Point{math.NaN(), math.NaN()},
		Kind:        w.Kind,
		Source:      w.Source,
		DateVisited: w.DateVisited,
		Notes:       w.Notes,
		Ident:       w.Ident,
		Country:     w.Country,
	}
	if w.Latitude != nil && w.Longitude != nil {
		a.Location = orb.Point{*w.Longitude, *w.Latitude}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a *Airport) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Airport) UnmarshalJSON(data []byte) error {
	var w airportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return a.fromWire(w)
}

var (
	_ msgpack.CustomEncoder = (*Airport)(nil)
	_ msgpack.CustomDecoder = (*Airport)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (a *Airport) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(a.wire())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (a *Airport) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w airportWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	return a.fromWire(w)
}

// Candidate is the display form of a reference record offered to the user.
type Candidate struct {
	Ident     string   `json:"ident" msgpack:"ident"`
	Name      string   `json:"name" msgpack:"name"`
	IATA      string   `json:"iata,omitempty" msgpack:"iata,omitempty"`
	Local     string   `json:"local,omitempty" msgpack:"local,omitempty"`
	Country   string   `json:"country" msgpack:"country"`
	Type      string   `json:"type" msgpack:"type"`
	Latitude  *float64 `json:"latitude,omitempty" msgpack:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" msgpack:"longitude,omitempty"`
}

// NewCandidate converts a reference record for display.
func NewCandidate(r *refdata.Record) Candidate {
	c := Candidate{
		Ident:   r.Ident,
		Name:    r.Name,
		IATA:    r.IATA,
		Local:   r.Local,
		Country: r.Country,
		Type:    string(r.Classification),
	}
	if r.HasLocation() {
		lat, lng := r.Latitude, r.Longitude
		c.Latitude, c.Longitude = &lat, &lng
	}
	return c
}

// Report is the serializable form of an Outcome.
type Report struct {
	State          string      `json:"state" msgpack:"state"`
	Code           string      `json:"code,omitempty" msgpack:"code,omitempty"`
	Match          *Candidate  `json:"match,omitempty" msgpack:"match,omitempty"`
	AlreadyPresent bool        `json:"already_present,omitempty" msgpack:"already_present,omitempty"`
	Airport        *Airport    `json:"airport,omitempty" msgpack:"airport,omitempty"`
	Candidates     []Candidate `json:"candidates,omitempty" msgpack:"candidates,omitempty"`
	Reason         Reason      `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Message        string      `json:"message" msgpack:"message"`
}

// Report converts o for transport.
func (o Outcome) Report() Report {
	rep := Report{
		State:          o.State.String(),
		Code:           o.Code,
		AlreadyPresent: o.AlreadyPresent,
		Airport:        o.Airport,
		Reason:         o.Reason,
		Message:        o.Message,
	}
	if o.Record != nil {
		c := NewCandidate(o.Record)
		rep.Match = &c
	}
	for _, r := range o.Candidates {
		rep.Candidates = append(rep.Candidates, NewCandidate(r))
	}
	return rep
}
