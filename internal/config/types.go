package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Config is the full bot configuration.
//
// It is decoded from an optional YAML/JSON file, then overlaid with the
// environment (see ApplyEnv). After Load it is treated as immutable: components
// receive the values they need at construction time.
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`

	// LockFile guards against two bots polling the same account at once.
	// Empty disables locking.
	LockFile string `json:"lock_file,omitempty"`
}

// PracticumConfig describes the homework status API.
type PracticumConfig struct {
	// Token is sent as "Authorization: OAuth <token>". Do not log.
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// RequestTimeout is a Go duration string (e.g. "30s").
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type TelegramConfig struct {
	// Token is the bot token. Do not log.
	Token string `json:"token,omitempty"`
	// ChatID receives status notifications. Validate checks that it parses
	// as an int64.
	ChatID   ChatRef `json:"chat_id,omitempty"`
	ThreadID int     `json:"thread_id,omitempty"`
	// GroupLog optionally receives mirrored error logs (see logging.telegram).
	GroupLog ChatRef `json:"group_log,omitempty"`
	// RatePerSec bounds outgoing notifications. Default 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// SendTimeout is a Go duration string bounding a single send. Default "10s".
	SendTimeout string `json:"send_timeout,omitempty"`
}

// PollConfig controls the status polling loop.
//
// Interval accepts:
//   - Go duration: "600s", "10m"
//   - HH:MM interval: "00:10"
//   - cron expression or descriptor: "*/10 * * * *", "@every 10m"
type PollConfig struct {
	Interval string `json:"interval,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the optional delivery journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./homeworkbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ChatRef is a Telegram chat id kept as text. YAML and JSON files may spell it
// either as a number or as a string.
type ChatRef string

func (r *ChatRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ChatRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	*r = ChatRef(n.String())
	return nil
}
