package config

import (
	"fmt"
	"net/url"
	"strings"

	logx "homeworkbot/pkg/logx"
)

// Validate checks values that would otherwise fail later at runtime.
// It does not require credentials; use CheckTokens for that gate.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	u, err := url.Parse(strings.TrimSpace(cfg.Practicum.Endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("practicum.endpoint: invalid url %q", cfg.Practicum.Endpoint)
	}
	if _, err := ParseDurationField("practicum.request_timeout", cfg.Practicum.RequestTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("telegram.send_timeout", cfg.Telegram.SendTimeout); err != nil {
		return err
	}
	if strings.TrimSpace(string(cfg.Telegram.ChatID)) != "" {
		if _, err := cfg.Telegram.ChatIDInt(); err != nil {
			return fmt.Errorf("telegram.chat_id: must be an integer: %w", err)
		}
	}
	if _, err := cfg.Telegram.GroupLogInt(); err != nil {
		return fmt.Errorf("telegram.group_log: must be an integer: %w", err)
	}
	if cfg.Telegram.RatePerSec < 0 {
		return fmt.Errorf("telegram.rate_per_sec must be >= 0")
	}
	if strings.TrimSpace(cfg.Poll.Interval) == "" {
		return fmt.Errorf("poll.interval is required")
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	if !logx.ValidLevel(cfg.Logging.Telegram.MinLevel) {
		return fmt.Errorf("logging.telegram.min_level: unknown level %q", cfg.Logging.Telegram.MinLevel)
	}
	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(st.Path) == "" {
				return fmt.Errorf("storage.path is required for driver %q", st.Driver)
			}
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", st.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
