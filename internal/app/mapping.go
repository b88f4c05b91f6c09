package app

import (
	"fmt"
	"strings"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func mapPracticumConfig(cfg *config.Config) (practicum.Config, error) {
	timeout, err := config.ParseDurationOrDefault("practicum.request_timeout", cfg.Practicum.RequestTimeout, config.DefaultRequestTimeout)
	if err != nil {
		return practicum.Config{}, err
	}
	return practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  timeout,
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	sendTimeout, err := config.ParseDurationOrDefault("telegram.send_timeout", cfg.Telegram.SendTimeout, config.DefaultSendTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	var chatID int64
	if string(cfg.Telegram.ChatID) != "" {
		chatID, err = cfg.Telegram.ChatIDInt()
		if err != nil {
			return notifier.Config{}, fmt.Errorf("telegram.chat_id: %w", err)
		}
	}
	return notifier.Config{
		Target:      kit.ChatTarget{ChatID: chatID, ThreadID: cfg.Telegram.ThreadID},
		RatePerSec:  cfg.Telegram.RatePerSec,
		SendTimeout: sendTimeout,
	}, nil
}

// mapStorageConfig returns enabled=false when no journal is configured.
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, false, err
	}
	sc := storage.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path, BusyTimeout: busy}
	switch strings.ToLower(strings.TrimSpace(sc.Driver)) {
	case "", "none":
		return sc, false, nil
	}
	return sc, true, nil
}

func mapSchedule(cfg *config.Config) (poller.Schedule, error) {
	s, err := poller.ParseSchedule(cfg.Poll.Interval)
	if err != nil {
		return poller.Schedule{}, fmt.Errorf("poll.interval: %w", err)
	}
	return s, nil
}

// validateRuntime checks the pieces config.Validate cannot see (schedule
// syntax) so a bad hot reload is rejected before it is published.
func validateRuntime(cfg *config.Config) error {
	if _, err := mapSchedule(cfg); err != nil {
		return err
	}
	if _, err := mapPracticumConfig(cfg); err != nil {
		return err
	}
	if _, err := mapNotifierConfig(cfg); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	return nil
}
