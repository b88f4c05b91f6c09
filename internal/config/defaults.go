package config

import "time"

const (
	DefaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollInterval   = 600 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultSendTimeout    = 10 * time.Second
)

// Default returns a config with every optional field filled in.
// Credentials are left empty; they normally come from the environment.
func Default() Config {
	return Config{
		Practicum: PracticumConfig{
			Endpoint:       DefaultEndpoint,
			RequestTimeout: DefaultRequestTimeout.String(),
		},
		Telegram: TelegramConfig{
			RatePerSec:  1,
			SendTimeout: DefaultSendTimeout.String(),
		},
		Poll: PollConfig{Interval: DefaultPollInterval.String()},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Telegram: LoggingTelegram{
				MinLevel:   "error",
				RatePerSec: 1,
			},
		},
	}
}

// fillDefaults fills zero values left by a partial config file.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Practicum.Endpoint == "" {
		cfg.Practicum.Endpoint = def.Practicum.Endpoint
	}
	if cfg.Practicum.RequestTimeout == "" {
		cfg.Practicum.RequestTimeout = def.Practicum.RequestTimeout
	}
	if cfg.Telegram.RatePerSec <= 0 {
		cfg.Telegram.RatePerSec = def.Telegram.RatePerSec
	}
	if cfg.Telegram.SendTimeout == "" {
		cfg.Telegram.SendTimeout = def.Telegram.SendTimeout
	}
	if cfg.Poll.Interval == "" {
		cfg.Poll.Interval = def.Poll.Interval
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Telegram.MinLevel == "" {
		cfg.Logging.Telegram.MinLevel = def.Logging.Telegram.MinLevel
	}
	if cfg.Logging.Telegram.RatePerSec <= 0 {
		cfg.Logging.Telegram.RatePerSec = def.Logging.Telegram.RatePerSec
	}
}
