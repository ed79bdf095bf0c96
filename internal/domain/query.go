package domain

// Complexity buckets how many constraints a query expresses.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// ResultSize estimates how many panels a query will match.
type ResultSize string

const (
	ResultSizeLarge  ResultSize = "많음"
	ResultSizeMedium ResultSize = "중간"
	ResultSizeSmall  ResultSize = "적음"
)

// Intent is the coarse purpose of a query.
type Intent string

const (
	IntentFindTarget   Intent = "타겟 그룹 찾기"
	IntentAnalyzeGroup Intent = "그룹 특성 분석"
	IntentGroupSize    Intent = "그룹 규모 파악"
	IntentGeneral      Intent = "일반 검색"
)

// SuggestionType groups suggestions by the kind of condition they add.
type SuggestionType string

const (
	SuggestionDemographic SuggestionType = "demographic"
	SuggestionEducation   SuggestionType = "education"
	SuggestionLocation    SuggestionType = "location"
	SuggestionIncome      SuggestionType = "income"
)

// Suggestion proposes an auxiliary condition inferred from the explicit ones.
type Suggestion struct {
	Type   SuggestionType `json:"type"`
	Field  FeatureKey     `json:"field"`
	Value  string         `json:"value"`
	Reason string         `json:"reason"`
}

// ParsedQuery is the result of cleaning a query and extracting its features.
type ParsedQuery struct {
	OriginalQuery string     `json:"original_query"`
	CleanedQuery  string     `json:"cleaned_query"`
	Features      Features   `json:"extracted_features"`
	Keywords      []string   `json:"keywords"`
	Complexity    Complexity `json:"complexity"`
}

// AugmentedQuery is a parsed query plus advisory suggestions.
type AugmentedQuery struct {
	ParsedQuery
	Suggestions []Suggestion `json:"suggestions"`
}

// AnalysisMetadata summarises which filters a query produced.
type AnalysisMetadata struct {
	FeatureCount      int  `json:"feature_count"`
	HasAgeFilter      bool `json:"has_age_filter"`
	HasLocationFilter bool `json:"has_location_filter"`
	HasJobFilter      bool `json:"has_job_filter"`
}

// QueryAnalysis is the canonical search-condition structure returned for a query.
// Suggestions are advisory and are never merged into SearchConditions.
type QueryAnalysis struct {
	OriginalQuery       string           `json:"original_query"`
	SearchConditions    Features         `json:"search_conditions"`
	SearchIntent        Intent           `json:"search_intent"`
	Complexity          Complexity       `json:"complexity"`
	Keywords            []string         `json:"keywords"`
	EstimatedResultSize ResultSize       `json:"estimated_result_size"`
	Suggestions         []Suggestion     `json:"suggestions"`
	Metadata            AnalysisMetadata `json:"metadata"`
}
