package service

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/normalize"
)

// SuggestionRule proposes auxiliary conditions when Applies holds for the
// explicit features of a query.
type SuggestionRule struct {
	Name     string
	Applies  func(f domain.Features) bool
	Suggests []domain.Suggestion
}

// DefaultSuggestionRules is the built-in inference rule set, evaluated in order.
var DefaultSuggestionRules = []SuggestionRule{
	{
		Name: "twenties-unmarried",
		Applies: func(f domain.Features) bool {
			return f.AgeRange != nil && f.AgeRange.Within(20, 29)
		},
		Suggests: []domain.Suggestion{{
			Type:   domain.SuggestionDemographic,
			Field:  domain.FeatureMaritalStatus,
			Value:  "미혼",
			Reason: "20대는 대부분 미혼입니다",
		}},
	},
	{
		Name: "forties-married",
		Applies: func(f domain.Features) bool {
			return f.AgeRange != nil && f.AgeRange.Min >= 40
		},
		Suggests: []domain.Suggestion{{
			Type:   domain.SuggestionDemographic,
			Field:  domain.FeatureMaritalStatus,
			Value:  "기혼",
			Reason: "40대 이상은 기혼일 가능성이 높습니다",
		}},
	},
	{
		Name:    "it-degree-seoul",
		Applies: jobIs("IT/기술"),
		Suggests: []domain.Suggestion{
			{
				Type:   domain.SuggestionEducation,
				Field:  domain.FeatureEducation,
				Value:  "대졸",
				Reason: "IT 직종은 대졸 이상이 많습니다",
			},
			{
				Type:   domain.SuggestionLocation,
				Field:  domain.FeatureLocation,
				Value:  "서울",
				Reason: "IT 기업이 서울에 집중되어 있습니다",
			},
		},
	},
	{
		Name:    "student-unmarried",
		Applies: jobIs("학생"),
		Suggests: []domain.Suggestion{{
			Type:   domain.SuggestionDemographic,
			Field:  domain.FeatureMaritalStatus,
			Value:  "미혼",
			Reason: "학생은 대부분 미혼입니다",
		}},
	},
	{
		Name: "seoul-middle-income",
		Applies: func(f domain.Features) bool {
			return f.Location == "서울"
		},
		Suggests: []domain.Suggestion{{
			Type:   domain.SuggestionIncome,
			Field:  domain.FeatureIncomeLevel,
			Value:  "중",
			Reason: "서울 거주자는 평균 이상 소득일 가능성이 높습니다",
		}},
	},
}

func jobIs(job string) func(domain.Features) bool {
	return func(f domain.Features) bool { return f.Job == job }
}

var keywordStopwords = stringSet(
	"을", "를", "이", "가", "은", "는", "의", "에", "에서", "으로", "로", "과", "와",
	"하는", "있는", "되는", "하다", "이다", "있다", "중", "중에서", "찾아", "찾아줘", "검색",
	"알려줘", "보여줘", "사람", "사람들", "패널", "응답자", "대상",
)

func stringSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// intentTriggers are checked in order; the first set with a term contained
// in the query decides the intent.
var intentTriggers = []struct {
	intent domain.Intent
	terms  []string
}{
	{domain.IntentFindTarget, []string{"찾아", "검색", "추출", "선택"}},
	{domain.IntentAnalyzeGroup, []string{"분석", "특성", "패턴"}},
	{domain.IntentGroupSize, []string{"몇 명", "규모", "수"}},
}

// QueryParser turns natural-language panel queries into search conditions.
// It holds only read-only rule tables and is safe for concurrent use.
type QueryParser struct {
	rules []SuggestionRule
}

// NewQueryParser creates a parser. With no rules it uses DefaultSuggestionRules.
func NewQueryParser(rules ...SuggestionRule) *QueryParser {
	if len(rules) == 0 {
		rules = DefaultSuggestionRules
	}
	return &QueryParser{rules: rules}
}

// Parse cleans the query and extracts features, keywords and complexity.
func (p *QueryParser) Parse(query string) domain.ParsedQuery {
	cleaned := normalize.Clean(query)
	features := normalize.ExtractFeatures(cleaned)
	return domain.ParsedQuery{
		OriginalQuery: query,
		CleanedQuery:  cleaned,
		Features:      features,
		Keywords:      ExtractKeywords(cleaned),
		Complexity:    ComplexityOf(features.Count()),
	}
}

// Augment attaches the suggestions of every matching rule. Suggestions are
// advisory: a field the query already constrains may still be suggested,
// and it is up to the consumer to merge with Features.WithSuggestions.
func (p *QueryParser) Augment(parsed domain.ParsedQuery) domain.AugmentedQuery {
	suggestions := make([]domain.Suggestion, 0)
	for _, rule := range p.rules {
		if rule.Applies(parsed.Features) {
			suggestions = append(suggestions, rule.Suggests...)
		}
	}
	return domain.AugmentedQuery{ParsedQuery: parsed, Suggestions: suggestions}
}

// BuildConditions returns the explicit features of the query as search
// conditions. Suggestions are never merged in.
func (p *QueryParser) BuildConditions(augmented domain.AugmentedQuery) domain.Features {
	return augmented.Features.Clone()
}

// Analyze runs the full pipeline: parse, augment, build conditions, classify
// intent and estimate result size. Identical input yields identical output.
func (p *QueryParser) Analyze(query string) domain.QueryAnalysis {
	parsed := p.Parse(query)
	augmented := p.Augment(parsed)
	conditions := p.BuildConditions(augmented)
	count := parsed.Features.Count()

	return domain.QueryAnalysis{
		OriginalQuery:       query,
		SearchConditions:    conditions,
		SearchIntent:        ClassifyIntent(parsed.CleanedQuery),
		Complexity:          parsed.Complexity,
		Keywords:            parsed.Keywords,
		EstimatedResultSize: EstimateResultSize(count),
		Suggestions:         augmented.Suggestions,
		Metadata: domain.AnalysisMetadata{
			FeatureCount:      count,
			HasAgeFilter:      conditions.Has(domain.FeatureAgeRange),
			HasLocationFilter: conditions.Has(domain.FeatureLocation),
			HasJobFilter:      conditions.Has(domain.FeatureJob),
		},
	}
}

// ExtractKeywords returns whitespace tokens of at least two characters that
// are not stopwords, in input order.
func ExtractKeywords(cleaned string) []string {
	keywords := make([]string, 0)
	for _, tok := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := keywordStopwords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// ComplexityOf buckets a feature count at the breakpoints 2 and 4.
func ComplexityOf(count int) domain.Complexity {
	switch {
	case count <= 2:
		return domain.ComplexitySimple
	case count <= 4:
		return domain.ComplexityMedium
	default:
		return domain.ComplexityComplex
	}
}

// EstimateResultSize uses the same breakpoints as ComplexityOf: more
// constraints mean fewer matching panels.
func EstimateResultSize(count int) domain.ResultSize {
	switch ComplexityOf(count) {
	case domain.ComplexitySimple:
		return domain.ResultSizeLarge
	case domain.ComplexityMedium:
		return domain.ResultSizeMedium
	default:
		return domain.ResultSizeSmall
	}
}

// ClassifyIntent picks the first intent whose trigger terms occur in query.
func ClassifyIntent(query string) domain.Intent {
	for _, t := range intentTriggers {
		for _, term := range t.terms {
			if strings.Contains(query, term) {
				return t.intent
			}
		}
	}
	return domain.IntentGeneral
}
