// Package web serves the section pages, the invoice history and a backup
// download over a local HTTP listener. Every route is read-only.
//
// No route asks for a password. GET /backup returns the whole app state,
// including the plaintext adminPassword and cashierPassword, to any client
// that can reach the listener, the same as an exported backup file. Bind
// the server to a loopback address unless every client on the network is
// trusted. See package auth for the password model.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/karmapos/internal/backup"
	"github.com/roach88/karmapos/internal/history"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/store"
)

// Handler exposes the page endpoints.
type Handler struct {
	st       *store.Store
	registry *sections.Registry
	history  *history.History
	now      func() time.Time
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil now uses time.Now; a nil logger uses
// slog.Default().
func NewHandler(st *store.Store, registry *sections.Registry, h *history.History, now func() time.Time, logger *slog.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{st: st, registry: registry, history: h, now: now, logger: logger}
}

// NewRouter builds the router with the standard middleware and h's routes.
func NewRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(h.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts the menu, section, invoice and backup routes on r.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.menu)
	r.Get("/sections/{id}", h.section)
	r.Get("/invoices", h.invoices)
	r.Get("/invoices/{id}", h.invoice)
	r.Get("/backup", h.download)
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	all, err := h.registry.All(r.Context())
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sections.RenderMenu(w, all); err != nil {
		h.logger.Error("render menu", "error", err)
	}
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	section, err := h.registry.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, statusFor(err))
		return
	}
	items, err := h.st.ItemsBySection(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	// Render into a buffer so a template error still yields a 500.
	page, err := sections.RenderString(section, items)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			http.Error(w, fmt.Sprintf("invalid page %q", raw), http.StatusBadRequest)
			return
		}
		n = v
	}
	page, err := h.history.Page(r.Context(), n)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}
	inv, err := h.history.Find(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, statusFor(err))
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	snap, err := backup.Export(r.Context(), h.st)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(h.now())))
	if err := backup.Encode(w, snap); err != nil {
		h.logger.Error("write backup download", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sections.ErrUnknownSection), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
