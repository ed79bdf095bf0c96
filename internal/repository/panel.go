package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

type PanelRepository struct {
	db dbtx
}

func NewPanelRepository(pool *pgxpool.Pool) *PanelRepository {
	return &PanelRepository{db: pool}
}

// Insert stores a panel; an existing panel_uuid is left untouched.
func (r *PanelRepository) Insert(ctx context.Context, p *domain.Panel) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO panel_master (panel_uuid, panel_id, gender, birth_year, region_main, region_sub,
		                           marital_status, education, job_category, job_detail, personal_income, household_income)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (panel_uuid) DO NOTHING`,
		p.PanelUUID, p.PanelID, nullableString(p.Gender), p.BirthYear,
		nullableString(p.RegionMain), nullableString(p.RegionSub),
		nullableString(p.MaritalStatus), nullableString(p.Education),
		nullableString(p.JobCategory), nullableString(p.JobDetail),
		nullableString(p.PersonalIncome), nullableString(p.HouseholdIncome),
	)
	return err
}

func (r *PanelRepository) GetByUUID(ctx context.Context, panelUUID string) (*domain.Panel, error) {
	p, err := scanPanel(r.db.QueryRow(ctx,
		`SELECT panel_uuid, panel_id, gender, birth_year, region_main, region_sub,
		        marital_status, education, job_category, job_detail, personal_income, household_income
		 FROM panel_master WHERE panel_uuid = $1`,
		panelUUID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPanelNotFound
		}
		return nil, err
	}
	return p, nil
}

// Search runs the page statement of q.
func (r *PanelRepository) Search(ctx context.Context, q service.PanelQuery) ([]*domain.Panel, error) {
	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	panels := make([]*domain.Panel, 0)
	for rows.Next() {
		p, err := scanPanel(rows)
		if err != nil {
			return nil, err
		}
		panels = append(panels, p)
	}
	return panels, rows.Err()
}

// Count runs the count statement of q.
func (r *PanelRepository) Count(ctx context.Context, q service.PanelQuery) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, q.CountSQL, q.CountArgs...).Scan(&n)
	return n, err
}

func scanPanel(row pgx.Row) (*domain.Panel, error) {
	var p domain.Panel
	var gender, regionMain, regionSub, marital, education, jobCategory, jobDetail, personalIncome, householdIncome *string
	if err := row.Scan(&p.PanelUUID, &p.PanelID, &gender, &p.BirthYear, &regionMain, &regionSub,
		&marital, &education, &jobCategory, &jobDetail, &personalIncome, &householdIncome); err != nil {
		return nil, err
	}
	p.Gender = stringOrEmpty(gender)
	p.RegionMain = stringOrEmpty(regionMain)
	p.RegionSub = stringOrEmpty(regionSub)
	p.MaritalStatus = stringOrEmpty(marital)
	p.Education = stringOrEmpty(education)
	p.JobCategory = stringOrEmpty(jobCategory)
	p.JobDetail = stringOrEmpty(jobDetail)
	p.PersonalIncome = stringOrEmpty(personalIncome)
	p.HouseholdIncome = stringOrEmpty(householdIncome)
	return &p, nil
}
