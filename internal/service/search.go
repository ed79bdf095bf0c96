package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/logging"
	"github.com/cloo-solutions/panelsearch/internal/pagination"
	"github.com/cloo-solutions/panelsearch/internal/telemetry"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
	samplePanelCount   = 3
)

// PanelRepositoryInterface runs panel statements built by BuildPanelQuery.
type PanelRepositoryInterface interface {
	Search(ctx context.Context, q PanelQuery) ([]*domain.Panel, error)
	Count(ctx context.Context, q PanelQuery) (int, error)
}

// InsightGenerator summarises a found panel group.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, query string, panels []domain.PanelView) (*domain.Insights, error)
}

// QueryLogEntry records one analyzed query.
type QueryLogEntry struct {
	Query       string
	Conditions  domain.Features
	Intent      domain.Intent
	Complexity  domain.Complexity
	ResultCount int
	DurationMs  int
}

// QueryLogRepository persists analyzed queries.
type QueryLogRepository interface {
	CreateQueryLog(ctx context.Context, entry QueryLogEntry) (string, error)
}

// SearchInput is one panel search request.
type SearchInput struct {
	Query  string
	Limit  int
	Cursor string
}

// SearchOutput is a page of panels matching an analyzed query.
type SearchOutput struct {
	Analysis     domain.QueryAnalysis `json:"analysis"`
	SQL          string               `json:"sql"`
	TotalCount   int                  `json:"totalCount"`
	FilterTags   []domain.FilterTag   `json:"filterTags"`
	SamplePanels []domain.PanelView   `json:"samplePanels"`
	Panels       []domain.PanelView   `json:"panels"`
	Cursor       string               `json:"cursor,omitempty"`
	HasMore      bool                 `json:"has_more"`
	Insights     *domain.Insights     `json:"insights,omitempty"`
}

// SearchService turns natural-language queries into panel result pages.
type SearchService struct {
	parser   *QueryParser
	panels   PanelRepositoryInterface
	insights InsightGenerator
	logs     QueryLogRepository
	logger   *zap.Logger
	now      func() time.Time
}

// SearchOption configures optional collaborators.
type SearchOption func(*SearchService)

func WithInsights(g InsightGenerator) SearchOption {
	return func(s *SearchService) { s.insights = g }
}

func WithQueryLog(r QueryLogRepository) SearchOption {
	return func(s *SearchService) { s.logs = r }
}

func WithLogger(l *zap.Logger) SearchOption {
	return func(s *SearchService) { s.logger = logging.OrNop(l) }
}

func WithClock(now func() time.Time) SearchOption {
	return func(s *SearchService) { s.now = now }
}

// NewSearchService creates a search service. panels may be nil, in which
// case only Analyze is available.
func NewSearchService(parser *QueryParser, panels PanelRepositoryInterface, opts ...SearchOption) *SearchService {
	if parser == nil {
		parser = NewQueryParser()
	}
	s := &SearchService{
		parser: parser,
		panels: panels,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the query pipeline and records the query.
func (s *SearchService) Analyze(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	if strings.TrimSpace(query) == "" {
		return domain.QueryAnalysis{}, domain.ErrEmptyQuery
	}
	start := s.now()
	analysis := s.parser.Analyze(query)
	s.record(ctx, analysis, 0, start)
	return analysis, nil
}

// Search analyzes the query, fetches one page of matching panels and, on
// the first page, asks the insight generator about them. Insight failures
// are logged and do not fail the search.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if s.panels == nil {
		return nil, domain.ErrDatabaseUnavailable
	}

	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Operation: "panel_search",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	start := s.now()
	analysis := s.parser.Analyze(input.Query)
	span.SetCount("feature_count", analysis.Metadata.FeatureCount)
	q := BuildPanelQuery(PanelFilter{
		Conditions: analysis.SearchConditions,
		Year:       start.Year(),
		After:      cursor,
		Limit:      limit,
	})

	total, err := s.panels.Count(ctx, q)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	rows, err := s.panels.Search(ctx, q)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	page := pagination.Page(rows, limit,
		func(p *domain.Panel) string { return p.PanelID },
		func(p *domain.Panel) string { return p.PanelUUID },
	)
	views := make([]domain.PanelView, 0, len(page.Items))
	for _, p := range page.Items {
		views = append(views, p.View(start))
	}

	out := &SearchOutput{
		Analysis:     analysis,
		SQL:          q.SQL,
		TotalCount:   total,
		FilterTags:   domain.FilterTags(analysis.SearchConditions),
		SamplePanels: views[:min(samplePanelCount, len(views))],
		Panels:       views,
		Cursor:       page.Cursor,
		HasMore:      page.HasMore,
	}

	if s.insights != nil && cursor == nil && len(views) > 0 {
		insights, err := s.insights.GenerateInsights(ctx, input.Query, views)
		if err != nil {
			s.logger.Warn("insight generation failed", zap.String("query", input.Query), zap.Error(err))
		} else {
			out.Insights = insights
		}
	}

	span.SetCount("total_count", total)
	s.record(ctx, analysis, total, start)
	return out, nil
}

func (s *SearchService) record(ctx context.Context, a domain.QueryAnalysis, count int, start time.Time) {
	if s.logs == nil {
		return
	}
	_, err := s.logs.CreateQueryLog(ctx, QueryLogEntry{
		Query:       a.OriginalQuery,
		Conditions:  a.SearchConditions,
		Intent:      a.SearchIntent,
		Complexity:  a.Complexity,
		ResultCount: count,
		DurationMs:  int(s.now().Sub(start).Milliseconds()),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to record query log", zap.Error(err))
	}
}
