package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/pagination"
)

const panelColumns = `panel_uuid, panel_id, gender, birth_year, region_main, region_sub,
       marital_status, education, job_category, job_detail, personal_income, household_income`

// PanelFilter selects panels from panel_master.
type PanelFilter struct {
	Conditions domain.Features
	// Year is the reference year for converting ages to birth years.
	Year  int
	After *pagination.Cursor
	Limit int
}

// PanelQuery is a parameterised statement over panel_master plus its
// matching count statement.
type PanelQuery struct {
	SQL       string
	Args      []any
	CountSQL  string
	CountArgs []any
}

// BuildPanelQuery renders the conditions of f as a WHERE clause. Only age,
// gender, location, district and job constrain the query; the remaining
// features have no column whose values use the canonical vocabulary. The
// page statement fetches Limit+1 rows so the caller can tell whether more
// remain.
func BuildPanelQuery(f PanelFilter) PanelQuery {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	c := f.Conditions
	if c.AgeRange != nil {
		// older panels have smaller birth years
		where = append(where, fmt.Sprintf("birth_year BETWEEN %s AND %s",
			arg(f.Year-c.AgeRange.Max), arg(f.Year-c.AgeRange.Min)))
	}
	if c.Gender != "" {
		where = append(where, "gender = "+arg(c.Gender))
	}
	if c.Location != "" {
		where = append(where, "region_main LIKE '%' || "+arg(c.Location)+" || '%'")
	}
	if c.District != "" {
		where = append(where, "region_sub LIKE '%' || "+arg(c.District)+" || '%'")
	}
	if c.Job != "" {
		p := arg(c.Job)
		where = append(where, fmt.Sprintf("(job_category LIKE '%%' || %s || '%%' OR job_detail LIKE '%%' || %s || '%%')", p, p))
	}

	countWhere := "1=1"
	if len(where) > 0 {
		countWhere = strings.Join(where, " AND ")
	}
	countArgs := append([]any(nil), args...)

	if f.After != nil {
		where = append(where, fmt.Sprintf("(panel_id, panel_uuid) > (%s, %s)", arg(f.After.LastKey), arg(f.After.LastID)))
	}
	pageWhere := "1=1"
	if len(where) > 0 {
		pageWhere = strings.Join(where, " AND ")
	}

	return PanelQuery{
		SQL: fmt.Sprintf("SELECT %s\nFROM panel_master\nWHERE %s\nORDER BY panel_id, panel_uuid\nLIMIT %s",
			panelColumns, pageWhere, arg(f.Limit+1)),
		Args:      args,
		CountSQL:  "SELECT COUNT(*) FROM panel_master WHERE " + countWhere,
		CountArgs: countArgs,
	}
}
