package practicum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{Endpoint: srv.URL + "/api/user_api/homework_statuses/", Token: "secret", Timeout: 2 * time.Second}, logx.Nop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetAPIAnswerSendsAuthAndCursor(t *testing.T) {
	t.Parallel()
	var gotAuth, gotFrom, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFrom = r.URL.Query().Get("from_date")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1000}`))
	})

	resp, err := c.GetAPIAnswer(context.Background(), 900)
	if err != nil {
		t.Fatalf("GetAPIAnswer: %v", err)
	}
	if gotAuth != "OAuth secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotFrom != "900" {
		t.Fatalf("from_date = %q", gotFrom)
	}
	if gotPath != "/api/user_api/homework_statuses/" {
		t.Fatalf("path = %q", gotPath)
	}
	if cur, ok := resp.CurrentDate(); !ok || cur != 1000 {
		t.Fatalf("CurrentDate = %d, %v", cur, ok)
	}
}

func TestGetAPIAnswerZeroCursorUsesNow(t *testing.T) {
	t.Parallel()
	var gotFrom string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from_date")
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1}`))
	}, WithClock(func() time.Time { return time.Unix(1700000000, 0) }))

	if _, err := c.GetAPIAnswer(context.Background(), 0); err != nil {
		t.Fatalf("GetAPIAnswer: %v", err)
	}
	if gotFrom != "1700000000" {
		t.Fatalf("from_date = %q", gotFrom)
	}
}

func TestGetAPIAnswerNon200IsEndpointError(t *testing.T) {
	t.Parallel()
	for _, code := range []int{http.StatusServiceUnavailable, http.StatusUnauthorized, http.StatusNoContent} {
		code := code
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		_, err := c.GetAPIAnswer(context.Background(), 1)
		if !errors.Is(err, homework.ErrEndpoint) {
			t.Fatalf("status %d: err = %v, want endpoint error", code, err)
		}
		var e *homework.Error
		if !errors.As(err, &e) || e.Status != code {
			t.Fatalf("status %d: error does not carry the status: %#v", code, err)
		}
	}
}

func TestGetAPIAnswerMalformedBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})
	_, err := c.GetAPIAnswer(context.Background(), 1)
	if !errors.Is(err, homework.ErrEndpoint) {
		t.Fatalf("err = %v, want endpoint error", err)
	}
	if !errors.Is(err, homework.ErrMalformedBody) {
		t.Fatalf("err = %v, want to wrap ErrMalformedBody", err)
	}
}

func TestGetAPIAnswerTransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{Endpoint: url, Token: "x", Timeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.GetAPIAnswer(context.Background(), 1)
	if homework.KindOf(err) != homework.KindEndpoint {
		t.Fatalf("err = %v, want endpoint kind", err)
	}
}

func TestGetAPIAnswerNonObjectStillDecodes(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	})
	resp, err := c.GetAPIAnswer(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetAPIAnswer: %v", err)
	}
	if _, err := homework.CheckResponse(resp); !errors.Is(err, homework.ErrTypeMismatch) {
		t.Fatalf("CheckResponse err = %v, want type mismatch", err)
	}
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Endpoint: "::"}, logx.Nop()); err == nil {
		t.Fatal("expected error")
	}
}
