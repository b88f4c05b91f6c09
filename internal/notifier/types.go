package notifier

import (
	"time"

	kit "homeworkbot/internal/transport"
)

// Config controls delivery.
type Config struct {
	Target      kit.ChatTarget
	RatePerSec  int
	SendTimeout time.Duration
	HistorySize int
}

type HistoryItem struct {
	At        time.Time
	Cycle     string
	Text      string
	MessageID int
}
