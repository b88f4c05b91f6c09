package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// WriterSender prints messages to w instead of delivering them. It backs the
// dry-run mode of the CLI.
type WriterSender struct {
	mu   sync.Mutex
	w    io.Writer
	next atomic.Int64
}

func NewWriterSender(w io.Writer) *WriterSender {
	return &WriterSender{w: w}
}

func (s *WriterSender) SendText(ctx context.Context, to ChatTarget, text string, _ *SendOptions) (MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return MessageRef{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "[chat %d] %s\n", to.ChatID, text); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: int(s.next.Add(1))}, nil
}
