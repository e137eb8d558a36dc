// Package http provides the web delivery layer: routing, server-rendered
// pages, flash messages and the health/metrics endpoints.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmatsuo/go-shorty/internal/api/http/middleware"
	"github.com/tmatsuo/go-shorty/internal/config"
	"github.com/tmatsuo/go-shorty/internal/entity"
	"github.com/tmatsuo/go-shorty/web"
)

// LinkService is the application-layer contract the handlers depend on.
type LinkService interface {
	Shorten(ctx context.Context, rawURL string) (*entity.Link, error)
	Resolve(ctx context.Context, shortCode string) (*entity.Link, error)
	Recent(ctx context.Context, n int) ([]*entity.Link, error)
}

func NewRouter(logger *httplog.Logger, svc LinkService, cfg *config.Config) (*chi.Mux, error) {
	h, err := newHandler(svc, cfg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger.Logger, h.serverError))
	r.Use(middleware.Metrics)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/static/*", http.FileServerFS(web.FS))

	r.Get("/", h.index)
	r.Post("/shorten", h.shorten)
	r.Get("/{shortCode}", h.redirect)

	r.NotFound(h.notFound)

	return r, nil
}
