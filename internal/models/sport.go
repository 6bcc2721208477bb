package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Sport string

const (
	SportSoccer     Sport = "SOCCER"
	SportFutsal     Sport = "FUTSAL"
	SportBasketball Sport = "BASKETBALL"
	SportBaseball   Sport = "BASEBALL"
	SportVolleyball Sport = "VOLLEYBALL"
	SportBadminton  Sport = "BADMINTON"
)

var knownSports = map[Sport]bool{
	SportSoccer:     true,
	SportFutsal:     true,
	SportBasketball: true,
	SportBaseball:   true,
	SportVolleyball: true,
	SportBadminton:  true,
}

// ParseSport resolves a sport name case-insensitively.
func ParseSport(name string) (Sport, bool) {
	// Casers are stateful; build one per call.
	sport := Sport(cases.Upper(language.Und).String(strings.TrimSpace(name)))
	if !knownSports[sport] {
		return "", false
	}
	return sport, true
}
