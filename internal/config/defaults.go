package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultServerAddr              = ":8080"
	DefaultServerReadHeaderTimeout = 5 * time.Second
	DefaultServerShutdownTimeout   = 10 * time.Second
	DefaultSessionCookie           = "botbuilder_session"
	DefaultSessionTTL              = 30 * time.Minute

	DefaultSetupEndpoint   = "https://functions.poehali.dev/a32a9e48-7851-4521-a5bc-b4d5eb28b8c3"
	DefaultSetupWebhookURL = "https://functions.poehali.dev/87fade88-5166-41ab-af98-b68f978b76a8"

	DefaultRegistrarTelegramAPIURL  = "https://api.telegram.org"
	DefaultRegistrarRequestTimeout  = 10 * time.Second
	DefaultRegistrarBreakerFailures = 5
	DefaultRegistrarBreakerTimeout  = 30 * time.Second

	// SessionSweepTask is the scheduler key of the idle session sweep.
	SessionSweepTask            = "session_sweep"
	DefaultSessionSweepSchedule = "0 */5 * * * *"
)

// DefaultMessages are the texts shown by the form.
var DefaultMessages = MessagesConfig{
	TokenRequired:      "Введите API токен",
	VerifyFailed:       "Ошибка проверки токена",
	UnknownError:       "Неизвестная ошибка",
	SuccessTitle:       "Успешно!",
	SuccessDescription: "Бот %s подключен и готов к работе!",
	ErrorTitle:         "Ошибка",
}

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_header_timeout", DefaultServerReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.session_cookie", DefaultSessionCookie)
	v.SetDefault("server.session_ttl", DefaultSessionTTL)

	v.SetDefault("setup.endpoint", DefaultSetupEndpoint)
	v.SetDefault("setup.webhook_url", DefaultSetupWebhookURL)
	v.SetDefault("setup.request_timeout", time.Duration(0))
	v.SetDefault("setup.in_process", false)

	v.SetDefault("registrar.enabled", false)
	v.SetDefault("registrar.telegram_api_url", DefaultRegistrarTelegramAPIURL)
	v.SetDefault("registrar.request_timeout", DefaultRegistrarRequestTimeout)
	v.SetDefault("registrar.allowed_origins", []string{"*"})
	v.SetDefault("registrar.breaker_failures", DefaultRegistrarBreakerFailures)
	v.SetDefault("registrar.breaker_timeout", DefaultRegistrarBreakerTimeout)

	v.SetDefault("scheduler.tasks."+SessionSweepTask+".enabled", true)
	v.SetDefault("scheduler.tasks."+SessionSweepTask+".schedule", DefaultSessionSweepSchedule)

	v.SetDefault("messages.token_required", DefaultMessages.TokenRequired)
	v.SetDefault("messages.verify_failed", DefaultMessages.VerifyFailed)
	v.SetDefault("messages.unknown_error", DefaultMessages.UnknownError)
	v.SetDefault("messages.success_title", DefaultMessages.SuccessTitle)
	v.SetDefault("messages.success_description", DefaultMessages.SuccessDescription)
	v.SetDefault("messages.error_title", DefaultMessages.ErrorTitle)
}
