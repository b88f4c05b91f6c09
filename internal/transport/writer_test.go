package transport

import (
	"bytes"
	"context"
	"testing"
)

func TestWriterSender(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := NewWriterSender(&buf)

	ref, err := s.SendText(context.Background(), ChatTarget{ChatID: 7}, "Нет новых статусов", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.MessageID != 1 || ref.ChatID != 7 {
		t.Fatalf("ref = %+v", ref)
	}
	if got := buf.String(); got != "[chat 7] Нет новых статусов\n" {
		t.Fatalf("output = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SendText(ctx, ChatTarget{ChatID: 7}, "x", nil); err == nil {
		t.Fatal("expected context error")
	}
}
