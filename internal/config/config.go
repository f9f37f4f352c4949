// Package config provides configuration loading, validation, and management
// for the bot builder. It reads an optional YAML file, applies BOTBUILDER_*
// environment overrides on top of defaults, and validates the result.
package config

import "time"

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Setup     SetupConfig     `mapstructure:"setup"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds the HTTP listener and visitor session settings.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"                validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"min=1s"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"    validate:"min=1s"`
	SessionCookie     string        `mapstructure:"session_cookie"      validate:"required"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"         validate:"min=1m"`
}

// SetupConfig configures the token submission flow.
// RequestTimeout of zero means the request is never cut short. InProcess
// makes the form call the registrar directly instead of Endpoint.
type SetupConfig struct {
	Endpoint       string        `mapstructure:"endpoint"        validate:"required,url"`
	WebhookURL     string        `mapstructure:"webhook_url"     validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	InProcess      bool          `mapstructure:"in_process"`
}

// RegistrarConfig configures the optional local verify-and-register endpoint.
// BreakerFailures consecutive Bot API failures open the circuit for
// BreakerTimeout.
type RegistrarConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TelegramAPIURL  string        `mapstructure:"telegram_api_url" validate:"required,url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"min=1s,max=2m"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"  validate:"min=1s"`
}

// SchedulerConfig holds the configuration for scheduled tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig defines the configuration for a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the user-visible texts of the form.
// SuccessDescription is a format string receiving the bot's first name.
type MessagesConfig struct {
	TokenRequired      string `mapstructure:"token_required"      validate:"required"`
	VerifyFailed       string `mapstructure:"verify_failed"       validate:"required"`
	UnknownError       string `mapstructure:"unknown_error"       validate:"required"`
	SuccessTitle       string `mapstructure:"success_title"       validate:"required"`
	SuccessDescription string `mapstructure:"success_description" validate:"required"`
	ErrorTitle         string `mapstructure:"error_title"         validate:"required"`
}
