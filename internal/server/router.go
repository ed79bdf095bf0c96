package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/api"
	"github.com/cloo-solutions/panelsearch/internal/api/handlers"
	"github.com/cloo-solutions/panelsearch/internal/api/middleware"
)

const maxBodyBytes int64 = 5 * 1024 * 1024

type RouterConfig struct {
	SearchHandler *handlers.SearchHandler
	ChunkHandler  *handlers.ChunkHandler
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Tracing)
	r.Use(middleware.BodyLimit(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/search", func(r chi.Router) {
		r.Post("/", cfg.SearchHandler.Search)
		r.Post("/analyze", cfg.SearchHandler.Analyze)
	})

	r.Route("/chunks", func(r chi.Router) {
		r.Post("/preview", cfg.ChunkHandler.Preview)
		r.Post("/search", cfg.ChunkHandler.Search)
	})

	return r
}
