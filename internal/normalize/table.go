// Package normalize turns free-form Korean text into canonical panel features.
//
// Every matcher is a pure function over read-only rule tables. Tables are
// ordered slices rather than maps: the first rule that matches wins, so the
// order in which rules are listed is part of their meaning.
package normalize

import "strings"

// Rule maps one synonym to its canonical value.
type Rule struct {
	Key   string
	Value string
}

// Table is an ordered synonym table. Earlier rules take precedence.
type Table []Rule

// Exact returns the value of the first rule whose key equals s.
func (t Table) Exact(s string) (string, bool) {
	for _, r := range t {
		if r.Key == s {
			return r.Value, true
		}
	}
	return "", false
}

// Contains returns the value of the first rule whose key occurs in s.
func (t Table) Contains(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, r := range t {
		if strings.Contains(s, r.Key) {
			return r.Value, true
		}
	}
	return "", false
}

// Place is a location rule: a surface form, its province and, for
// district-level forms, the canonical district name.
type Place struct {
	Key      string
	Province string
	District string
}

// Places is an ordered location table.
type Places []Place

// Exact returns the first place whose key equals s.
func (p Places) Exact(s string) (Place, bool) {
	for _, pl := range p {
		if pl.Key == s {
			return pl, true
		}
	}
	return Place{}, false
}

// Contains returns the first place whose key occurs in s.
func (p Places) Contains(s string) (Place, bool) {
	if s == "" {
		return Place{}, false
	}
	for _, pl := range p {
		if strings.Contains(s, pl.Key) {
			return pl, true
		}
	}
	return Place{}, false
}
