package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

// ResponseRepository reads and writes response_meta.
type ResponseRepository struct {
	db dbtx
}

func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{db: pool}
}

func (r *ResponseRepository) Insert(ctx context.Context, rec domain.ResponseRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO response_meta (response_uuid, panel_uuid, answer_text)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (response_uuid) DO NOTHING`,
		rec.ResponseUUID.String(), rec.PanelUUID.String(), rec.AnswerText,
	)
	return err
}

func (r *ResponseRepository) GetByUUID(ctx context.Context, responseUUID string) (*domain.ResponseRecord, error) {
	var respID, panelID, text string
	err := r.db.QueryRow(ctx,
		`SELECT response_uuid, panel_uuid, answer_text FROM response_meta WHERE response_uuid = $1`,
		responseUUID,
	).Scan(&respID, &panelID, &text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResponseNotFound
		}
		return nil, err
	}
	return &domain.ResponseRecord{
		PanelUUID:    domain.TextID(panelID),
		ResponseUUID: domain.TextID(respID),
		AnswerText:   text,
	}, nil
}
