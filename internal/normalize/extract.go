package normalize

import "github.com/cloo-solutions/panelsearch/internal/domain"

// ExtractFeatures runs every matcher over text and returns the features
// that found evidence. It never fails; text without evidence yields an
// empty mapping.
//
// Age, job, education, income and marital status are matched against the
// whole cleaned text. Gender and location are resolved token by token:
// gender because it is exact-match only, location so that the first place
// named in the text wins.
func ExtractFeatures(text string) domain.Features {
	var f domain.Features
	cleaned := Clean(text)
	if cleaned == "" {
		return f
	}

	f.AgeRange = ExtractAgeRange(cleaned)

	tokens := Tokens(cleaned)
	for _, tok := range tokens {
		if g, ok := NormalizeGender(tok); ok {
			f.Gender = g
			break
		}
	}

	if loc, ok := extractLocation(tokens); ok {
		f.Location = loc.Province
		f.District = loc.District
	}

	if v, ok := NormalizeJob(cleaned); ok {
		f.Job = v
	}
	if v, ok := NormalizeEducation(cleaned); ok {
		f.Education = v
	}
	if v, ok := NormalizeIncome(cleaned); ok {
		f.IncomeLevel = v
	}
	if v, ok := NormalizeMaritalStatus(cleaned); ok {
		f.MaritalStatus = v
	}
	return f
}

// extractLocation takes the first token that resolves to a place. When that
// token only names a province, a later district of the same province
// ("서울 강남구") fills in the district.
func extractLocation(tokens []string) (LocationMatch, bool) {
	var found LocationMatch
	ok := false
	for _, tok := range tokens {
		m, hit := NormalizeLocation(tok)
		if !hit {
			continue
		}
		if !ok {
			found, ok = m, true
			if found.District != "" {
				break
			}
			continue
		}
		if m.District != "" && m.Province == found.Province {
			found.District = m.District
			break
		}
	}
	return found, ok
}
