package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/api"
	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

// ResponseLookup loads stored survey answers.
type ResponseLookup interface {
	GetByUUID(ctx context.Context, responseUUID string) (*domain.ResponseRecord, error)
}

type ChunkSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]service.ChunkMatch, error)
}

type ChunkHandler struct {
	defaults  service.ChunkConfig
	uuidGen   service.UUIDGenerator
	responses ResponseLookup
	searcher  ChunkSearcher
}

// NewChunkHandler creates a chunk handler. responses and searcher may be nil;
// the features that need them then answer 503.
func NewChunkHandler(defaults service.ChunkConfig, uuidGen service.UUIDGenerator, responses ResponseLookup, searcher ChunkSearcher) *ChunkHandler {
	return &ChunkHandler{
		defaults:  defaults,
		uuidGen:   uuidGen,
		responses: responses,
		searcher:  searcher,
	}
}

type ChunkPreviewRequest struct {
	AnswerText   string `json:"answer_text"`
	PanelUUID    string `json:"panel_uuid"`
	ResponseUUID string `json:"response_uuid"`
	MaxChars     int    `json:"max_chars,omitempty"`
	Overlap      *int   `json:"overlap,omitempty"`
}

type ChunkPreviewResponse struct {
	Chunks []domain.ChunkRecord `json:"chunks"`
	Count  int                  `json:"count"`
}

type ChunkSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type ChunkSearchResponse struct {
	Results []service.ChunkMatch `json:"results"`
}

// Preview chunks either the supplied answer text or, when it is empty, the
// stored answer for response_uuid.
func (h *ChunkHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req ChunkPreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg := h.defaults
	if req.MaxChars != 0 {
		cfg.MaxChars = req.MaxChars
	}
	if req.Overlap != nil {
		cfg.Overlap = *req.Overlap
	}
	chunker, err := service.NewChunker(cfg, h.uuidGen)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	rec := domain.ResponseRecord{
		PanelUUID:    domain.TextID(req.PanelUUID),
		ResponseUUID: domain.TextID(req.ResponseUUID),
		AnswerText:   req.AnswerText,
	}
	if strings.TrimSpace(rec.AnswerText) == "" {
		if req.ResponseUUID == "" {
			api.Error(w, http.StatusBadRequest, "answer_text or response_uuid is required")
			return
		}
		if h.responses == nil {
			api.HandleError(w, domain.ErrDatabaseUnavailable)
			return
		}
		stored, err := h.responses.GetByUUID(r.Context(), req.ResponseUUID)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		rec = *stored
	}

	chunks := chunker.Chunk(rec, "")
	if chunks == nil {
		chunks = []domain.ChunkRecord{}
	}
	api.Success(w, http.StatusOK, ChunkPreviewResponse{Chunks: chunks, Count: len(chunks)})
}

func (h *ChunkHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		api.HandleError(w, domain.ErrEmbeddingsUnavailable)
		return
	}

	var req ChunkSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	matches, err := h.searcher.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if matches == nil {
		matches = []service.ChunkMatch{}
	}
	api.Success(w, http.StatusOK, ChunkSearchResponse{Results: matches})
}
