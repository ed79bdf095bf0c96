package domain

// FeatureKey names one field of a feature mapping.
type FeatureKey string

const (
	FeatureAgeRange      FeatureKey = "age_range"
	FeatureGender        FeatureKey = "gender"
	FeatureLocation      FeatureKey = "location"
	FeatureDistrict      FeatureKey = "district"
	FeatureJob           FeatureKey = "job"
	FeatureEducation     FeatureKey = "education"
	FeatureIncomeLevel   FeatureKey = "income_level"
	FeatureMaritalStatus FeatureKey = "marital_status"
)

// FeatureKeys lists every feature key in canonical order.
var FeatureKeys = []FeatureKey{
	FeatureAgeRange,
	FeatureGender,
	FeatureLocation,
	FeatureDistrict,
	FeatureJob,
	FeatureEducation,
	FeatureIncomeLevel,
	FeatureMaritalStatus,
}

const (
	MinAge = 0
	MaxAge = 120
)

// AgeRange is an inclusive age interval with Min <= Max, both in [MinAge, MaxAge].
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NewAgeRange orders and clamps the bounds so the invariant always holds.
func NewAgeRange(a, b int) AgeRange {
	if a > b {
		a, b = b, a
	}
	return AgeRange{Min: clampAge(a), Max: clampAge(b)}
}

// Within reports whether the range lies entirely inside [lo, hi].
func (r AgeRange) Within(lo, hi int) bool {
	return r.Min >= lo && r.Max <= hi
}

func clampAge(v int) int {
	if v < MinAge {
		return MinAge
	}
	if v > MaxAge {
		return MaxAge
	}
	return v
}

// Features is the sparse feature mapping extracted from free text. A zero
// field means no evidence was found and the dimension is unconstrained.
type Features struct {
	AgeRange      *AgeRange `json:"age_range,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Location      string    `json:"location,omitempty"`
	District      string    `json:"district,omitempty"`
	Job           string    `json:"job,omitempty"`
	Education     string    `json:"education,omitempty"`
	IncomeLevel   string    `json:"income_level,omitempty"`
	MaritalStatus string    `json:"marital_status,omitempty"`
}

// Has reports whether the mapping carries a value for key.
func (f Features) Has(key FeatureKey) bool {
	if key == FeatureAgeRange {
		return f.AgeRange != nil
	}
	return f.Value(key) != ""
}

// Value returns the string value stored under key. Age ranges are not
// string-valued and always return "".
func (f Features) Value(key FeatureKey) string {
	switch key {
	case FeatureGender:
		return f.Gender
	case FeatureLocation:
		return f.Location
	case FeatureDistrict:
		return f.District
	case FeatureJob:
		return f.Job
	case FeatureEducation:
		return f.Education
	case FeatureIncomeLevel:
		return f.IncomeLevel
	case FeatureMaritalStatus:
		return f.MaritalStatus
	}
	return ""
}

// Set stores a string value under key and reports whether key is string-valued.
func (f *Features) Set(key FeatureKey, value string) bool {
	switch key {
	case FeatureGender:
		f.Gender = value
	case FeatureLocation:
		f.Location = value
	case FeatureDistrict:
		f.District = value
	case FeatureJob:
		f.Job = value
	case FeatureEducation:
		f.Education = value
	case FeatureIncomeLevel:
		f.IncomeLevel = value
	case FeatureMaritalStatus:
		f.MaritalStatus = value
	default:
		return false
	}
	return true
}

// Keys returns the present keys in canonical order.
func (f Features) Keys() []FeatureKey {
	keys := make([]FeatureKey, 0, len(FeatureKeys))
	for _, k := range FeatureKeys {
		if f.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Count returns the number of present keys.
func (f Features) Count() int {
	return len(f.Keys())
}

// Clone returns a deep copy.
func (f Features) Clone() Features {
	out := f
	if f.AgeRange != nil {
		r := *f.AgeRange
		out.AgeRange = &r
	}
	return out
}

// WithSuggestions merges suggested values into a copy of f. Fields already
// present are never overwritten, and the first suggestion for a field wins.
func (f Features) WithSuggestions(suggestions []Suggestion) Features {
	out := f.Clone()
	for _, s := range suggestions {
		if out.Has(s.Field) {
			continue
		}
		out.Set(s.Field, s.Value)
	}
	return out
}
