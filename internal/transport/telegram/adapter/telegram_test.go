package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
	fail  bool
}

func (f *fakeBotAPI) handler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
		http.NotFound(w, r)
		return
	}
	var req map[string]any
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	text, _ := req["text"].(string)
	chat, _ := req["chat_id"].(string)
	f.texts = append(f.texts, text)
	f.chats = append(f.chats, chat)
	resp := map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": len(f.texts) + 4,
			"chat":       map[string]any{"id": 42, "type": "private"},
			"date":       0,
			"text":       text,
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeBotAPI) sent() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...), append([]string(nil), f.chats...)
}

func newTestAdapter(t *testing.T, api *fakeBotAPI) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)
	a, err := New(Config{Token: "123:abc", URL: srv.URL, Offline: true}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestSendText(t *testing.T) {
	t.Parallel()
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "Нет новых статусов", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.MessageID != 5 || ref.ChatID != 42 {
		t.Fatalf("ref = %+v", ref)
	}
	texts, chats := api.sent()
	if len(texts) != 1 || texts[0] != "Нет новых статусов" {
		t.Fatalf("texts = %q", texts)
	}
	if chats[0] != "42" {
		t.Fatalf("chat_id = %q", chats[0])
	}
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	t.Parallel()
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	long := strings.Repeat("я", telegramTextLimit+10)
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, long, nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if texts, _ := api.sent(); len(texts) != 2 {
		t.Fatalf("chunks sent = %d, want 2", len(texts))
	}
	if ref.MessageID != 5 {
		t.Fatalf("ref should point at the first chunk, got %+v", ref)
	}
}

func TestSendTextAPIError(t *testing.T) {
	t.Parallel()
	api := &fakeBotAPI{fail: true}
	a := newTestAdapter(t, api)
	if _, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 1}, "x", nil); err == nil {
		t.Fatal("expected error from Bot API")
	}
}

func TestSendTextCanceled(t *testing.T) {
	t.Parallel()
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.SendText(ctx, kit.ChatTarget{ChatID: 1}, "x", nil); err == nil {
		t.Fatal("expected context error")
	}
	if texts, _ := api.sent(); len(texts) != 0 {
		t.Fatal("nothing should be sent after cancellation")
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  ", Offline: true}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		in    string
		limit int
		want  int
	}{
		{name: "short", in: "hello", limit: 10, want: 1},
		{name: "exact", in: strings.Repeat("a", 10), limit: 10, want: 1},
		{name: "two", in: strings.Repeat("a", 15), limit: 10, want: 2},
		{name: "newline preferred", in: "aaaaaaa\nbbbbbbbbb", limit: 10, want: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := splitTelegramText(tt.in, tt.limit, "")
			if len(got) != tt.want {
				t.Fatalf("chunks = %d (%q), want %d", len(got), got, tt.want)
			}
			for _, c := range got {
				if utf8.RuneCountInString(c) > tt.limit {
					t.Fatalf("chunk exceeds limit: %q", c)
				}
			}
		})
	}

	got := splitTelegramText("aaaaaaa\nbbbbbbbbb", 10, "")
	if got[0] != "aaaaaaa" {
		t.Fatalf("first chunk = %q, want split at newline", got[0])
	}
}
