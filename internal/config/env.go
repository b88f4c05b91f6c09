package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names. The first three are the required credentials.
const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"

	EnvEndpoint     = "PRACTICUM_ENDPOINT"
	EnvPollInterval = "HOMEWORKBOT_POLL_INTERVAL"
	EnvLogLevel     = "HOMEWORKBOT_LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment values on cfg. Non-empty variables override
// the file.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if cfg == nil {
		return
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Practicum.Token, EnvPracticumToken)
	set(&cfg.Telegram.Token, EnvTelegramToken)
	chatID := string(cfg.Telegram.ChatID)
	set(&chatID, EnvTelegramChatID)
	cfg.Telegram.ChatID = ChatRef(chatID)
	set(&cfg.Practicum.Endpoint, EnvEndpoint)
	set(&cfg.Poll.Interval, EnvPollInterval)
	set(&cfg.Logging.Level, EnvLogLevel)
}

// MissingTokens returns the environment names of the required values that are
// empty, in a stable order.
func MissingTokens(cfg *Config) []string {
	if cfg == nil {
		return []string{EnvPracticumToken, EnvTelegramToken, EnvTelegramChatID}
	}
	var missing []string
	if strings.TrimSpace(cfg.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(string(cfg.Telegram.ChatID)) == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	return missing
}

// CheckTokens reports whether the API token, the bot token and the chat id
// are all present.
func CheckTokens(cfg *Config) bool {
	return len(MissingTokens(cfg)) == 0
}

// ChatIDInt parses the configured chat id.
func (c TelegramConfig) ChatIDInt() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(c.ChatID)), 10, 64)
}

// GroupLogInt parses the optional log chat id. Zero means unset.
func (c TelegramConfig) GroupLogInt() (int64, error) {
	s := strings.TrimSpace(string(c.GroupLog))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
