// Package registrar verifies bot tokens against the Telegram Bot API and
// registers webhooks for them. It backs the /api/verify endpoint and can
// also serve the form in-process.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/botbuilder/internal/errs"
	"github.com/edgard/botbuilder/internal/logger"
	"github.com/edgard/botbuilder/internal/resilience"
	"github.com/edgard/botbuilder/internal/setup"
)

// Reasons reported to callers.
const (
	ReasonTokenRequired  = "Token is required"
	ReasonInvalidToken   = "Неверный токен"
	ReasonBotNotFound    = "Бот не найден"
	ReasonRejected       = "Неверный токен или бот не найден"
	ReasonServerErrorFmt = "Ошибка сервера: %v"
	ReasonWebhookFailed  = "Не удалось установить вебхук: %v"
	ReasonUnavailable    = "Telegram API временно недоступен"
)

// Service talks to the Bot API on behalf of the submitted token.
type Service struct {
	apiURL     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// NewService creates a Service using the Bot API at apiURL. A nil breaker
// gets one with default settings.
func NewService(apiURL string, timeout time.Duration, breaker *resilience.Breaker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "registrar")
	if breaker == nil {
		breaker = NewBreaker(0, 0, log)
	}
	return &Service{
		apiURL:     strings.TrimRight(apiURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     log,
	}
}

// NewBreaker returns a breaker that opens after maxFailures consecutive
// server-side failures. Rejected tokens and cancelled callers do not count.
func NewBreaker(maxFailures int, openTimeout time.Duration, log *slog.Logger) *resilience.Breaker {
	return resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "telegram-api",
		MaxFailures: maxFailures,
		OpenTimeout: openTimeout,
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			remote, ok := errs.AsRemote(err)
			return ok && remote.StatusCode < http.StatusInternalServerError
		},
	}, log)
}

// Register checks token with getMe and, when webhookURL is not empty,
// points the bot's webhook at it. Failures are *errs.RemoteError values
// carrying the HTTP status the endpoint answers with.
func (s *Service) Register(ctx context.Context, token, webhookURL string) (*setup.BotIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.NewRemoteError(http.StatusBadRequest, ReasonTokenRequired)
	}
	log := s.logger.With("token", logger.MaskToken(token))

	var identity *setup.BotIdentity
	err := s.breaker.Execute(func() error {
		var err error
		identity, err = s.register(ctx, log, token, webhookURL)
		return err
	})
	if resilience.IsOpen(err) {
		log.WarnContext(ctx, "Bot API circuit open, rejecting request", "state", s.breaker.State())
		return nil, errs.NewRemoteError(http.StatusServiceUnavailable, ReasonUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Service) register(ctx context.Context, log *slog.Logger, token, webhookURL string) (*setup.BotIdentity, error) {
	b, err := tgbot.New(token,
		tgbot.WithSkipGetMe(),
		tgbot.WithServerURL(s.apiURL),
		tgbot.WithHTTPClient(s.timeout, s.httpClient),
	)
	if err != nil {
		msg := scrubToken(err.Error(), token)
		log.ErrorContext(ctx, "Failed to create Telegram bot instance", "error", msg)
		return nil, errs.NewRemoteError(http.StatusInternalServerError, fmt.Sprintf(ReasonServerErrorFmt, msg))
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.InfoContext(ctx, "Token verification abandoned by caller", "error", ctxErr)
			return nil, errs.NewTransportError("verification cancelled", ctxErr)
		}
		msg := scrubToken(err.Error(), token)
		status, reason := classify(err, msg)
		log.WarnContext(ctx, "Token verification failed", "error", msg, "status", status)
		return nil, errs.NewRemoteError(status, reason)
	}
	log = log.With("bot_id", me.ID, "bot_username", me.Username)

	if webhookURL != "" {
		if _, err := b.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: webhookURL}); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.InfoContext(ctx, "Webhook setup abandoned by caller", "error", ctxErr)
				return nil, errs.NewTransportError("verification cancelled", ctxErr)
			}
			msg := scrubToken(err.Error(), token)
			log.WarnContext(ctx, "Failed to set webhook", "error", msg, "webhook_url", webhookURL)
			status, _ := classify(err, msg)
			return nil, errs.NewRemoteError(status, fmt.Sprintf(ReasonWebhookFailed, msg))
		}
		log.InfoContext(ctx, "Webhook registered", "webhook_url", webhookURL)
	}

	log.InfoContext(ctx, "Bot token verified")
	return &setup.BotIdentity{
		ID:        me.ID,
		FirstName: me.FirstName,
		Username:  me.Username,
	}, nil
}

// classify maps a Bot API error to the endpoint's status and reason. msg is
// the error text with the token already scrubbed.
func classify(err error, msg string) (int, string) {
	switch {
	case errors.Is(err, tgbot.ErrorUnauthorized):
		return http.StatusBadRequest, ReasonInvalidToken
	case errors.Is(err, tgbot.ErrorNotFound):
		return http.StatusBadRequest, ReasonBotNotFound
	case errors.Is(err, tgbot.ErrorBadRequest),
		errors.Is(err, tgbot.ErrorForbidden),
		errors.Is(err, tgbot.ErrorConflict):
		return http.StatusBadRequest, ReasonRejected
	default:
		return http.StatusInternalServerError, fmt.Sprintf(ReasonServerErrorFmt, msg)
	}
}

// scrubToken masks token in msg. Bot API errors quote the request URL,
// which embeds the token.
func scrubToken(msg, token string) string {
	masked := logger.MaskToken(token)
	msg = strings.ReplaceAll(msg, token, masked)
	if escaped := url.PathEscape(token); escaped != token {
		msg = strings.ReplaceAll(msg, escaped, masked)
	}
	if _, secret, ok := strings.Cut(token, ":"); ok && secret != "" {
		msg = strings.ReplaceAll(msg, secret, "***")
	}
	return msg
}
