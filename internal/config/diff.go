package config

import (
	"strings"

	logx "homeworkbot/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured fields for logging. Tokens are never included.
//
// Sections in restartRequired changed but are not applied at runtime.
func SummarizeConfigChange(oldCfg, newCfg *Config) (changed []string, attrs []logx.Field, restartRequired []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	if oldCfg.Practicum.Token != newCfg.Practicum.Token ||
		strings.TrimSpace(oldCfg.Practicum.Endpoint) != strings.TrimSpace(newCfg.Practicum.Endpoint) ||
		oldCfg.Practicum.RequestTimeout != newCfg.Practicum.RequestTimeout {
		changed = append(changed, "practicum")
		restartRequired = append(restartRequired, "practicum")
		attrs = append(attrs,
			logx.String("practicum.endpoint", strings.TrimSpace(newCfg.Practicum.Endpoint)),
			logx.Bool("practicum.token_set", strings.TrimSpace(newCfg.Practicum.Token) != ""),
		)
	}

	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
		restartRequired = append(restartRequired, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(string(newCfg.Telegram.GroupLog)) != ""),
		)
	}

	if strings.TrimSpace(oldCfg.Poll.Interval) != strings.TrimSpace(newCfg.Poll.Interval) {
		changed = append(changed, "poll")
		attrs = append(attrs, logx.String("poll.interval", strings.TrimSpace(newCfg.Poll.Interval)))
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	oldSt, newSt := StorageConfig{}, StorageConfig{}
	if oldCfg.Storage != nil {
		oldSt = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		newSt = *newCfg.Storage
	}
	if oldSt != newSt {
		changed = append(changed, "storage")
		restartRequired = append(restartRequired, "storage")
		attrs = append(attrs, logx.String("storage.driver", newSt.Driver))
	}

	if strings.TrimSpace(oldCfg.LockFile) != strings.TrimSpace(newCfg.LockFile) {
		changed = append(changed, "lock_file")
		restartRequired = append(restartRequired, "lock_file")
	}

	return changed, attrs, restartRequired
}
