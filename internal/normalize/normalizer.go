package normalize

import (
	"slices"
	"strings"
)

// NormalizeGender maps a single token to "남성" or "여성". Matching is
// case-insensitive and exact; a trailing particle is tolerated but a longer
// word that merely contains a synonym ("강남자") is not.
func NormalizeGender(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return "", false
	}
	for _, form := range tokenForms(t) {
		if v, ok := genderTable.Exact(form); ok {
			return v, true
		}
	}
	return "", false
}

// LocationMatch is a resolved location. District is empty unless the
// fragment named a district.
type LocationMatch struct {
	Province string
	District string
}

// NormalizeLocation resolves a fragment by exact lookup, then substring
// containment, then pass-through of a canonical province name.
func NormalizeLocation(fragment string) (LocationMatch, bool) {
	text := strings.TrimSpace(fragment)
	if text == "" {
		return LocationMatch{}, false
	}
	forms := tokenForms(text)

	for _, form := range forms {
		if p, ok := locationTable.Exact(form); ok {
			return LocationMatch{Province: p.Province, District: p.District}, true
		}
	}
	if p, ok := locationTable.Contains(text); ok {
		return LocationMatch{Province: p.Province, District: p.District}, true
	}
	for _, form := range forms {
		if slices.Contains(Provinces, form) {
			return LocationMatch{Province: form}, true
		}
	}
	return LocationMatch{}, false
}

// NormalizeJob maps text to a job category. Matching is case-insensitive.
func NormalizeJob(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if v, ok := jobTable.Exact(t); ok {
		return v, true
	}
	return jobTable.Contains(t)
}

func NormalizeEducation(text string) (string, bool) {
	return educationTable.Contains(text)
}

func NormalizeIncome(text string) (string, bool) {
	return incomeTable.Contains(text)
}

func NormalizeMaritalStatus(text string) (string, bool) {
	return maritalTable.Contains(text)
}
