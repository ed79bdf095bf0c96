package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultBirthYear = 1990
	defaultInterest  = "기타"
)

// Panel is one survey respondent from panel_master.
type Panel struct {
	PanelUUID       string
	PanelID         string
	Gender          string
	BirthYear       *int
	RegionMain      string
	RegionSub       string
	MaritalStatus   string
	Education       string
	JobCategory     string
	JobDetail       string
	PersonalIncome  string
	HouseholdIncome string
}

// PanelView is the shape the search front end renders.
type PanelView struct {
	ID        string   `json:"id"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Location  string   `json:"location"`
	Job       string   `json:"job"`
	Interests []string `json:"interests"`
	Bio       string   `json:"bio"`
}

// View converts a panel into its front-end form relative to now.
func (p *Panel) View(now time.Time) PanelView {
	birthYear := defaultBirthYear
	if p.BirthYear != nil {
		birthYear = *p.BirthYear
	}

	location := "정보없음"
	if main := strings.TrimSpace(p.RegionMain); main != "" {
		location = strings.TrimSpace(main + " " + strings.TrimSpace(p.RegionSub))
	}

	job := p.JobCategory
	if job == "" {
		job = "미기재"
	}
	gender := p.Gender
	if gender == "" {
		gender = "미상"
	}
	id := p.PanelID
	if id == "" {
		id = "P-Unknown"
	}

	return PanelView{
		ID:        id,
		Age:       now.Year() - birthYear,
		Gender:    gender,
		Location:  location,
		Job:       job,
		Interests: []string{defaultInterest},
		Bio:       fmt.Sprintf("%s입니다.", job),
	}
}

// FilterTag is one chip shown for an active search condition.
type FilterTag struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	QueryPart string `json:"queryPart"`
}

// FilterTags renders the conditions the front end displays as chips.
func FilterTags(f Features) []FilterTag {
	tags := make([]FilterTag, 0, 5)
	if f.AgeRange != nil {
		decade := (f.AgeRange.Min / 10) * 10
		tags = append(tags, FilterTag{
			Label:     "나이",
			Value:     fmt.Sprintf("%d-%d세", f.AgeRange.Min, f.AgeRange.Max),
			QueryPart: fmt.Sprintf("%d대", decade),
		})
	}
	labels := []struct {
		key   FeatureKey
		label string
	}{
		{FeatureGender, "성별"},
		{FeatureLocation, "지역"},
		{FeatureDistrict, "상세지역"},
		{FeatureJob, "직업"},
	}
	for _, l := range labels {
		if v := f.Value(l.key); v != "" {
			tags = append(tags, FilterTag{Label: l.label, Value: v, QueryPart: v})
		}
	}
	return tags
}
