package resolve

import (
	"strings"
	"unicode"
)

// SplitRoute splits a routing string into codes. Runs of whitespace, hyphens
// and arrow characters separate tokens; empty tokens are dropped.
//
//	"KRNT PAE"          -> [KRNT PAE]
//	"KRNT->SEA - KPAE"  -> [KRNT SEA KPAE]
func SplitRoute(route string) []string {
	return strings.FieldsFunc(route, isRouteSeparator)
}

func isRouteSeparator(r rune) bool {
	switch r {
	case '-', '>', '→', '–', '—':
		return true
	}
	return unicode.IsSpace(r)
}
