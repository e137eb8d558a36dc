package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/gorilla/sessions"

	"github.com/tmatsuo/go-shorty/internal/config"
	"github.com/tmatsuo/go-shorty/internal/entity"
	"github.com/tmatsuo/go-shorty/web"
)

// recentLinksCount is how many links the index page lists.
const recentLinksCount = 5

type handler struct {
	svc      LinkService
	cfg      *config.Config
	tmpl     *template.Template
	sessions *sessions.CookieStore
}

func newHandler(svc LinkService, cfg *config.Config) (*handler, error) {
	const op = "api.http.newHandler"

	tmpl, err := template.ParseFS(web.FS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse templates: %w", op, err)
	}

	return &handler{
		svc:      svc,
		cfg:      cfg,
		tmpl:     tmpl,
		sessions: sessions.NewCookieStore([]byte(cfg.SecretKey)),
	}, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]bool{"ok": true})
}

type indexData struct {
	Title   string
	Recent  []*entity.Link
	Flashes []flashMessage
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.handler.index"

	recent, err := h.svc.Recent(r.Context(), recentLinksCount)
	if err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		h.serverError(w, r)
		return
	}

	h.render(w, r, http.StatusOK, "index.html", indexData{
		Title:   "Go Shorty",
		Recent:  recent,
		Flashes: h.popFlashes(w, r),
	})
}

type resultData struct {
	Title    string
	ShortURL string
	Link     *entity.Link
}

func (h *handler) shorten(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.handler.shorten"

	link, err := h.svc.Shorten(r.Context(), r.PostFormValue("url"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrEmptyURL):
			h.flash(w, r, flashWarning, "Please enter a URL.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case errors.Is(err, entity.ErrInvalidURL):
			h.flash(w, r, flashDanger, "That doesn't look like a valid URL.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
		default:
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			h.serverError(w, r)
		}
		return
	}

	h.render(w, r, http.StatusOK, "result.html", resultData{
		Title:    "Shortened",
		ShortURL: h.shortURL(r, link.ShortCode),
		Link:     link,
	})
}

func (h *handler) redirect(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.handler.redirect"

	shortCode := chi.URLParam(r, "shortCode")

	link, err := h.svc.Resolve(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			h.notFound(w, r)
			return
		}

		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		h.serverError(w, r)
		return
	}

	// 302, not 301: the mapping is not guaranteed to be permanent and
	// clients should keep coming back so clicks get counted.
	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

// shortURL joins the configured base URL with the code, or derives the base
// from the incoming request when no override is set (the forwarded scheme
// wins over the transport scheme behind a proxy).
func (h *handler) shortURL(r *http.Request, shortCode string) string {
	if h.cfg.BaseURL != "" {
		return h.cfg.BaseURL + "/" + shortCode
	}

	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}

	return fmt.Sprintf("%s://%s/%s", scheme, r.Host, shortCode)
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404.html", nil)
}

func (h *handler) serverError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "500.html", nil)
}

// render executes the template into a buffer first, so a rendering failure
// can still produce a clean 500 instead of a half-written page.
func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	const op = "api.http.handler.render"

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
