package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/storage"
	logx "homeworkbot/pkg/logx"
)

// execute runs the CLI with an isolated config path and no dotenv file.
func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, "absent.yaml")
	}
	base := []string{"--config", cfgPath, "--env-file", filepath.Join(dir, "absent.env")}

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setCredentials(t *testing.T, practicum, telegram, chat string) {
	t.Helper()
	t.Setenv(config.EnvPracticumToken, practicum)
	t.Setenv(config.EnvTelegramToken, telegram)
	t.Setenv(config.EnvTelegramChatID, chat)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(config.EnvPollInterval, "")
}

func TestCheckReportsMissingValues(t *testing.T) {
	setCredentials(t, "p", "t", "")

	out, err := execute(t, "", "check")
	if err == nil || !strings.Contains(err.Error(), config.EnvTelegramChatID) {
		t.Fatalf("err = %v", err)
	}
	for _, want := range []string{"PRACTICUM_TOKEN    set", "TELEGRAM_TOKEN     set", "TELEGRAM_CHAT_ID   missing"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckPassesWithAllValues(t *testing.T) {
	setCredentials(t, "p", "t", "42")
	if out, err := execute(t, "", "check"); err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
}

func TestOnceDryRunPrintsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("from_date"); got != "1000" {
			t.Errorf("from_date = %q", got)
		}
		fmt.Fprint(w, `{"homeworks":[{"homework_name":"hw2","status":"rejected"}],"current_date":1200}`)
	}))
	defer srv.Close()

	setCredentials(t, "p", "", "42")
	t.Setenv(config.EnvEndpoint, srv.URL)

	out, err := execute(t, "", "once", "--dry-run", "--since", "1000")
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	want := `[chat 42] Изменился статус проверки работы "hw2". Работа проверена: у ревьюера есть замечания.` + "\n"
	if out != want {
		t.Fatalf("output = %q", out)
	}
}

func TestOnceRequiresTelegramWithoutDryRun(t *testing.T) {
	setCredentials(t, "p", "", "42")
	if _, err := execute(t, "", "once"); err == nil || !strings.Contains(err.Error(), config.EnvTelegramToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestHistoryRendersJournal(t *testing.T) {
	setCredentials(t, "p", "t", "42")
	dir := t.TempDir()
	journal := filepath.Join(dir, "journal.jsonl")
	cfgPath := filepath.Join(dir, "homeworkbot.yaml")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf("storage:\n  driver: file\n  path: %q\nlogging:\n  console: false\n", journal)), 0o600); err != nil {
		t.Fatal(err)
	}

	j, err := storage.Open(storage.Config{Driver: "file", Path: journal}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	for i, text := range []string{"Нет новых статусов", "Сбой в работе программы: endpoint"} {
		d := storage.Delivery{At: time.Unix(int64(1000+i), 0), Cycle: "0123456789abcdef", ChatID: 42, MessageID: i + 1, Text: text}
		if err := j.AppendDelivery(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	_ = j.Close()

	out, err := execute(t, cfgPath, "history", "--limit", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Сбой в работе программы") || strings.Contains(out, "Нет новых статусов") {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.Contains(out, "01234567") || strings.Contains(out, "0123456789") {
		t.Fatalf("cycle id not shortened:\n%s", out)
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	setCredentials(t, "p", "t", "42")
	if _, err := execute(t, "", "history"); err == nil || !strings.Contains(err.Error(), "journal is disabled") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseSince(t *testing.T) {
	now := time.Unix(10_000, 0)
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "1549962000", want: 1549962000},
		{raw: "1h", want: 10_000 - 3600},
		{raw: " 90s ", want: 10_000 - 90},
		{raw: "-5", wantErr: true},
		{raw: "-1h", wantErr: true},
		{raw: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSince(tt.raw, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("a  b\nc", 10); got != "a b c" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("абвгдеёжз", 5); got != "абвг…" {
		t.Fatalf("got %q", got)
	}
}
