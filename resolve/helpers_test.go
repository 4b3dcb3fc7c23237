package resolve

import (
	"time"

	"github.com/hugr-lab/airportlog/index"
	"github.com/hugr-lab/airportlog/rank"
	"github.com/hugr-lab/airportlog/refdata"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testRecords() []refdata.Record {
	return []refdata.Record{
		{Ident: "KRNT", ICAO: "KRNT", IATA: "RNT", Local: "RNT", GPS: "KRNT", Name: "Renton Municipal Airport",
			Latitude: 47.4931, Longitude: -122.2158, Country: "US", Classification: refdata.SmallAirport},
		{Ident: "KPAE", ICAO: "KPAE", IATA: "PAE", Local: "PAE", GPS: "KPAE", Name: "Snohomish County (Paine Field) Airport",
			Latitude: 47.9063, Longitude: -122.282, Country: "US", Classification: refdata.MediumAirport},
		{Ident: "KSAC", ICAO: "KSAC", IATA: "SAC", Local: "SAC", GPS: "KSAC", Name: "Sacramento Executive Airport",
			Latitude: 38.5125, Longitude: -121.493, Country: "US", Classification: refdata.MediumAirport},
		{Ident: "SBXS", Local: "SAC", Name: "Fazenda Sacadura Strip",
			Latitude: -10.1, Longitude: -50.2, Country: "BR", Classification: refdata.SmallAirport},
		{Ident: "3SD", Local: "3SD", Name: "Springfield Downtown Airport",
			Latitude: 39.8, Longitude: -89.6, Country: "US", Classification: refdata.SmallAirport},
		{Ident: "CSD3", Name: "Springfield Downtown Airport",
			Latitude: 46.3, Longitude: -63.1, Country: "CA", Classification: refdata.SmallAirport},
		{Ident: "YPAE", Local: "PAE", Name: "Paea Station",
			Latitude: -25.1, Longitude: 130.2, Country: "AU", Classification: refdata.SmallAirport},
		{Ident: "YBBN", ICAO: "YBBN", IATA: "BNE", Name: "Brisbane International Airport",
			Latitude: -27.3842, Longitude: 153.117, Country: "AU", Classification: refdata.LargeAirport},
		{Ident: "YSSY", ICAO: "YSSY", IATA: "SYD", Name: "Sydney Kingsford Smith International Airport",
			Latitude: -33.9461, Longitude: 151.177, Country: "AU", Classification: refdata.LargeAirport},
		{Ident: "KOLD", Local: "OLD", Name: "Olde Towne Field",
			Latitude: 47.1, Longitude: -122.1, Country: "US", Classification: refdata.Closed},
		{Ident: "EGLL", ICAO: "EGLL", IATA: "LHR", Name: "London Heathrow Airport",
			Latitude: 51.4706, Longitude: -0.461941, Country: "GB", Classification: refdata.LargeAirport},
		{Ident: "K0S9", GPS: "K0S9", Local: "0S9", Name: "Jefferson County International Airport",
			Latitude: 48.0538, Longitude: -122.811, Country: "US", Classification: refdata.SmallAirport},
		{Ident: "US-0001", Local: "NOL", Name: "No Location Ranch",
			Latitude: refdata.ParseCoordinate(""), Longitude: refdata.ParseCoordinate("x"), Country: "US", Classification: refdata.SmallAirport},
	}
}

func newTestResolver(records []refdata.Record, opts Options) *Resolver {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return New(index.Build(refdata.NewCatalog(records)), rank.New("US"), opts)
}
