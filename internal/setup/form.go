package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/edgard/botbuilder/internal/errs"
	"github.com/edgard/botbuilder/internal/logger"
)

// Form is the view state of one page view. All fields are guarded by mu,
// which is never held across the registrar call.
type Form struct {
	registrar Registrar
	messages  Messages
	logger    *slog.Logger

	mu               sync.Mutex
	token            string
	webhookURL       string
	loading          bool
	bot              *BotIdentity
	errMsg           string
	webhookSetupDone bool
	notifications    []Notification
}

// NewForm creates an idle form pre-populated with webhookURL.
func NewForm(registrar Registrar, webhookURL string, messages Messages, log *slog.Logger) *Form {
	if log == nil {
		log = slog.Default()
	}
	return &Form{
		registrar:  registrar,
		messages:   messages,
		logger:     log.With("component", "setup_form"),
		webhookURL: webhookURL,
	}
}

// SetToken replaces the token text as typed by the user.
func (f *Form) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

// SetWebhookURL replaces the webhook URL forwarded with the next submission.
func (f *Form) SetWebhookURL(webhookURL string) {
	f.mu.Lock()
	f.webhookURL = webhookURL
	f.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		Token:            f.token,
		WebhookURL:       f.webhookURL,
		Loading:          f.loading,
		Error:            f.errMsg,
		WebhookSetupDone: f.webhookSetupDone,
	}
	if f.bot != nil {
		bot := *f.bot
		s.Bot = &bot
	}
	return s
}

// TakeNotifications drains the queued notifications.
func (f *Form) TakeNotifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.notifications
	f.notifications = nil
	return n
}

// Submit runs one token submission with the current token and webhook URL.
// A blank token fails locally without calling the registrar. The loading
// flag is cleared when the attempt ends, whatever the outcome. Concurrent
// submissions are not serialized: the last one to resolve wins.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	token, webhookURL := f.token, f.webhookURL
	if strings.TrimSpace(token) == "" {
		f.errMsg = f.messages.TokenRequired
		f.mu.Unlock()
		return errs.NewValidationError(f.messages.TokenRequired)
	}
	f.loading = true
	f.errMsg = ""
	f.bot = nil
	f.mu.Unlock()

	log := f.logger.With("token", logger.MaskToken(token))
	log.DebugContext(ctx, "Submitting bot token", "webhook_url", webhookURL)

	resolved := false
	defer func() {
		if !resolved {
			f.mu.Lock()
			f.loading = false
			f.mu.Unlock()
		}
	}()

	bot, err := f.registrar.Register(ctx, token, webhookURL)
	if err == nil && bot == nil {
		err = errs.NewTransportError("malformed response", errors.New("missing bot object"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	resolved = true

	if err != nil {
		f.errMsg = f.failureMessage(err)
		f.notifications = append(f.notifications, Notification{
			Variant:     VariantDestructive,
			Title:       f.messages.ErrorTitle,
			Description: f.errMsg,
		})
		log.WarnContext(ctx, "Bot token submission failed", "error", err, "code", errs.Code(err))
		return err
	}

	identity := *bot
	f.bot = &identity
	f.webhookSetupDone = true
	f.notifications = append(f.notifications, Notification{
		Variant:     VariantDefault,
		Title:       f.messages.SuccessTitle,
		Description: fmt.Sprintf(f.messages.SuccessDescription, identity.FirstName),
	})
	log.InfoContext(ctx, "Bot connected", "bot_id", identity.ID, "bot_username", identity.Username)
	return nil
}

// failureMessage picks the most specific text available for err.
func (f *Form) failureMessage(err error) string {
	if remote, ok := errs.AsRemote(err); ok {
		if remote.Reason != "" {
			return remote.Reason
		}
		return f.messages.VerifyFailed
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return f.messages.UnknownError
}
