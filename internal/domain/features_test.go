package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgeRange(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int
		expected AgeRange
	}{
		{"ordered", 20, 29, AgeRange{Min: 20, Max: 29}},
		{"swapped", 35, 25, AgeRange{Min: 25, Max: 35}},
		{"clamped high", 60, 150, AgeRange{Min: 60, Max: 120}},
		{"clamped low", -5, 10, AgeRange{Min: 0, Max: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAgeRange(tt.a, tt.b)
			assert.Equal(t, tt.expected, r)
			assert.LessOrEqual(t, r.Min, r.Max)
		})
	}
}

func TestFeatures_KeysAndCount(t *testing.T) {
	f := Features{
		AgeRange: &AgeRange{Min: 20, Max: 24},
		Gender:   "남성",
		Location: "서울",
		Job:      "IT/기술",
	}

	assert.Equal(t, []FeatureKey{FeatureAgeRange, FeatureGender, FeatureLocation, FeatureJob}, f.Keys())
	assert.Equal(t, 4, f.Count())
	assert.True(t, f.Has(FeatureAgeRange))
	assert.False(t, f.Has(FeatureDistrict))
	assert.Equal(t, 0, Features{}.Count())
}

func TestFeatures_JSONOmitsAbsentKeys(t *testing.T) {
	f := Features{AgeRange: &AgeRange{Min: 20, Max: 24}, Gender: "남성"}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "age_range")
	assert.Contains(t, raw, "gender")
	assert.NotContains(t, raw, "location")
}

func TestFeatures_WithSuggestionsNeverOverwrites(t *testing.T) {
	f := Features{Location: "부산", Job: "IT/기술"}
	suggestions := []Suggestion{
		{Field: FeatureEducation, Value: "대졸"},
		{Field: FeatureLocation, Value: "서울"},
		{Field: FeatureEducation, Value: "대학원 이상"},
	}

	merged := f.WithSuggestions(suggestions)

	assert.Equal(t, "부산", merged.Location)
	assert.Equal(t, "대졸", merged.Education)
	assert.Empty(t, f.Education, "input must not be mutated")
}

func TestFeatures_CloneIsDeep(t *testing.T) {
	f := Features{AgeRange: &AgeRange{Min: 30, Max: 39}}
	c := f.Clone()
	c.AgeRange.Min = 31

	assert.Equal(t, 30, f.AgeRange.Min)
}

func TestChunkSequenceKey(t *testing.T) {
	assert.Equal(t, "R123#OV#0004", ChunkSequenceKey("R123", 4))
	assert.Equal(t, "NORESP#OV#0001", ChunkSequenceKey("", 1))
	assert.Equal(t, "R1#OV#12345", ChunkSequenceKey("R1", 12345))
}
