// Package web serves the bot token form: the page, the submit action and
// the health probe.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

const maxFormBytes = 16 << 10

// Handler renders the form for the visitor's session and runs submissions.
type Handler struct {
	sessions *Sessions
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewHandler parses the embedded templates and returns the page handler.
func NewHandler(sessions *Sessions, log *slog.Logger) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Handler{
		sessions: sessions,
		tmpl:     tmpl,
		logger:   log.With("component", "web"),
	}, nil
}

// index renders the current state and shows queued notifications once.
// Visitors without a session see a blank form; the session starts on the
// first submission.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	form, ok := h.sessions.Lookup(r)
	if !ok {
		form = h.sessions.Blank()
	}
	data := newPageData(form.Snapshot(), form.TakeNotifications())

	var buf bytes.Buffer
	if err := renderPage(&buf, h.tmpl, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.DebugContext(r.Context(), "Failed to write page", "error", err)
	}
}

// submit runs one token submission and redirects back to the page. The
// submission outlives the request: a visitor leaving does not abort it.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := h.sessions.Form(w, r)
	form.SetToken(r.PostFormValue("token"))

	// Outcome is recorded on the form and logged there.
	_ = form.Submit(context.WithoutCancel(r.Context()))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"time":     time.Now().Format(time.RFC3339),
		"sessions": h.sessions.Len(),
	})
	if err != nil {
		h.logger.DebugContext(r.Context(), "Failed to encode health response", "error", err)
	}
}

// noStore keeps browsers from caching per-session pages.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
