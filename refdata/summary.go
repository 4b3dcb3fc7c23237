package refdata

// Summary describes a loaded catalog.
type Summary struct {
	Source    string `json:"source,omitempty" msgpack:"source,omitempty"`
	Records   int    `json:"records" msgpack:"records"`
	Located   int    `json:"located" msgpack:"located"`
	Countries int    `json:"countries" msgpack:"countries"`

	// Codes is the number of distinct identifier codes in the index.
	Codes int `json:"codes,omitempty" msgpack:"codes,omitempty"`

	ByClassification map[Classification]int `json:"by_type" msgpack:"by_type"`
}

// Summarize counts the records of c. Codes is left for the caller that
// owns the index.
func Summarize(c *Catalog) Summary {
	s := Summary{ByClassification: make(map[Classification]int)}
	countries := make(map[string]struct{})

	c.Each(func(r *Record) bool {
		s.Records++
		if r.HasLocation() {
			s.Located++
		}
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
		s.ByClassification[r.Classification]++
		return true
	})
	s.Countries = len(countries)
	return s
}
