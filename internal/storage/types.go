package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Delivery records one message handed to the chat.
// Keep it compact and schema-stable.
type Delivery struct {
	At        time.Time `json:"at"`
	Cycle     string    `json:"cycle,omitempty"`
	ChatID    int64     `json:"chat_id"`
	ThreadID  int       `json:"thread_id,omitempty"`
	MessageID int       `json:"message_id,omitempty"`
	Text      string    `json:"text"`
	TookMS    int64     `json:"took_ms"`
}
