package registrar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/botbuilder/internal/errs"
	"github.com/edgard/botbuilder/internal/setup"
)

const maxRequestBytes = 64 << 10

// Verifier is the operation the handler exposes over HTTP.
type Verifier interface {
	Register(ctx context.Context, token, webhookURL string) (*setup.BotIdentity, error)
}

type verifyRequest struct {
	Token      string `json:"token"       validate:"required"`
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

type verifyResponse struct {
	Bot *setup.BotIdentity `json:"bot"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /api/verify.
type Handler struct {
	verifier Verifier
	validate *validator.Validate
	origins  map[string]struct{}
	allowAll bool
	logger   *slog.Logger
}

// NewHandler creates the endpoint handler. An origin of "*" allows every
// caller, matching a public function endpoint.
func NewHandler(verifier Verifier, allowedOrigins []string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		verifier: verifier,
		validate: validator.New(),
		origins:  make(map[string]struct{}),
		logger:   log.With("component", "registrar_handler"),
	}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			h.allowAll = true
		default:
			h.origins[origin] = struct{}{}
		}
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req verifyRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}
	}
	req.Token = strings.TrimSpace(req.Token)
	req.WebhookURL = strings.TrimSpace(req.WebhookURL)

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "WebhookURL" {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid webhook_url"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: ReasonTokenRequired})
		return
	}

	// The Bot API exchange is finished even if the caller goes away.
	bot, err := h.verifier.Register(context.WithoutCancel(r.Context()), req.Token, req.WebhookURL)
	if err != nil {
		if remote, ok := errs.AsRemote(err); ok {
			h.writeJSON(w, remote.StatusCode, errorResponse{Error: remote.Reason})
			return
		}
		h.logger.ErrorContext(r.Context(), "Verification failed unexpectedly", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error"})
		return
	}

	h.writeJSON(w, http.StatusOK, verifyResponse{Bot: bot})
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	switch {
	case h.allowAll:
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "":
		if _, ok := h.origins[origin]; !ok {
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	default:
		return
	}
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}
