package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/api"
	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

type SearchService interface {
	Analyze(ctx context.Context, query string) (domain.QueryAnalysis, error)
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type AnalyzeRequest struct {
	Query string `json:"query"`
}

type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// Analyze runs the query pipeline without touching panel storage.
func (h *SearchHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	analysis, err := h.svc.Analyze(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, analysis)
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 {
		api.Error(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	out, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:  req.Query,
		Limit:  req.Limit,
		Cursor: req.Cursor,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, out)
}
