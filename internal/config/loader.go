package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/edgard/botbuilder/internal/errs"
)

// EnvPrefix is the prefix of environment variables overriding the file,
// e.g. BOTBUILDER_SETUP_ENDPOINT.
const EnvPrefix = "BOTBUILDER"

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional, a missing file is not an error)
// 3. BOTBUILDER_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, errs.NewConfigError("failed to read config file", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.NewConfigError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags of the whole configuration tree.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errs.NewConfigError("invalid configuration", err)
	}
	if !strings.Contains(c.Messages.SuccessDescription, "%s") {
		return errs.NewConfigError("invalid configuration",
			fmt.Errorf("messages.success_description must contain %%s for the bot name"))
	}

	return nil
}
