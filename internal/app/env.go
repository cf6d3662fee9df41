package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultSettingsPath is used when neither a flag nor the environment names
// a settings file.
const DefaultSettingsPath = "data.json"

// Env is the configuration read from the environment.
type Env struct {
	SettingsPath string `env:"BLURMARK_SETTINGS"`
	LogLevel     string `env:"BLURMARK_LOG_LEVEL" envDefault:"info"`
	Watch        bool   `env:"BLURMARK_WATCH"`
}

// LoadEnv reads .env files (missing ones are ignored) and parses the
// environment.
func LoadEnv(files ...string) (Env, error) {
	_ = godotenv.Load(files...)

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply fills unset options from the environment.
func (e Env) Apply(opts Options) Options {
	if opts.SettingsPath == "" {
		opts.SettingsPath = e.SettingsPath
	}
	if opts.SettingsPath == "" {
		opts.SettingsPath = DefaultSettingsPath
	}
	if opts.LogLevel == "" {
		opts.LogLevel = e.LogLevel
	}
	opts.Watch = opts.Watch || e.Watch
	return opts
}
