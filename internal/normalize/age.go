package normalize

import (
	"regexp"
	"strconv"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

// AgeRule pairs a pattern with a resolver that turns its submatches into a range.
type AgeRule struct {
	Name    string
	Pattern *regexp.Regexp
	Resolve func(m []string) (domain.AgeRange, bool)
}

// AgeRules are tried in order and the first resolved match wins. Explicit
// numbers come before decade words, and qualified decades before bare ones.
var AgeRules = []AgeRule{
	{
		Name:    "range",
		Pattern: regexp.MustCompile(`(?:^|\D)(\d{2})\s*[-~]\s*(\d{2})\s*[세살]?`),
		Resolve: func(m []string) (domain.AgeRange, bool) {
			return domain.NewAgeRange(atoi(m[1]), atoi(m[2])), true
		},
	},
	{
		Name:    "single",
		Pattern: regexp.MustCompile(`(?:^|\D)(\d{2})\s*[세살]`),
		Resolve: func(m []string) (domain.AgeRange, bool) {
			age := atoi(m[1])
			return domain.NewAgeRange(age, age), true
		},
	},
	{
		Name:    "decade-qualified",
		Pattern: regexp.MustCompile(`([1-9])0대\s*(초반|중반|후반)`),
		Resolve: func(m []string) (domain.AgeRange, bool) {
			d := atoi(m[1]) * 10
			switch m[2] {
			case "초반":
				return domain.NewAgeRange(d, d+4), true
			case "중반":
				return domain.NewAgeRange(d+5, d+7), true
			case "후반":
				return domain.NewAgeRange(d+8, d+9), true
			}
			return domain.AgeRange{}, false
		},
	},
	{
		Name:    "decade-and-over",
		Pattern: regexp.MustCompile(`([1-9])0대\s*이상`),
		Resolve: func(m []string) (domain.AgeRange, bool) {
			return domain.NewAgeRange(atoi(m[1])*10, 100), true
		},
	},
	{
		Name:    "decade",
		Pattern: regexp.MustCompile(`([1-9])0대`),
		Resolve: func(m []string) (domain.AgeRange, bool) {
			d := atoi(m[1]) * 10
			return domain.NewAgeRange(d, d+9), true
		},
	},
	lifeStage("청소년", 13, 19),
	lifeStage("청년", 20, 34),
	lifeStage("중장년", 40, 64),
	lifeStage("노년", 65, 100),
}

func lifeStage(term string, lo, hi int) AgeRule {
	return AgeRule{
		Name:    term,
		Pattern: regexp.MustCompile(regexp.QuoteMeta(term)),
		Resolve: func([]string) (domain.AgeRange, bool) {
			return domain.NewAgeRange(lo, hi), true
		},
	}
}

// ExtractAgeRange returns the age range described by text, or nil when no
// rule applies.
func ExtractAgeRange(text string) *domain.AgeRange {
	if text == "" {
		return nil
	}
	for _, rule := range AgeRules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if r, ok := rule.Resolve(m); ok {
			return &r
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
