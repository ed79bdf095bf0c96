package domain

// CommonTrait is a characteristic shared by most of a result group that the
// query did not ask for.
type CommonTrait struct {
	Feature    string `json:"feature"`
	Value      string `json:"value"`
	Percentage int    `json:"percentage"`
	Insight    string `json:"insight"`
}

// Insights is the model's reading of a found panel group.
type Insights struct {
	HiddenPatterns          []CommonTrait             `json:"hidden_patterns"`
	BehavioralInsights      []string                  `json:"behavioral_insights"`
	SegmentationSuggestions []string                  `json:"segmentation_suggestions"`
	Statistics              map[string]map[string]int `json:"statistics,omitempty"`
	Summary                 string                    `json:"summary"`
}
