package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/notifier"
	logx "homeworkbot/pkg/logx"
)

type fakeFetcher struct {
	replies []reply
	cursors []int64
}

type reply struct {
	body string
	err  error
}

func (f *fakeFetcher) GetAPIAnswer(ctx context.Context, cursor int64) (homework.StatusResponse, error) {
	f.cursors = append(f.cursors, cursor)
	if len(f.replies) == 0 {
		return homework.StatusResponse{}, errors.New("no scripted reply")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if r.err != nil {
		return homework.StatusResponse{}, r.err
	}
	return homework.MustParseResponse(r.body), nil
}

type fakeSink struct {
	sent   []string
	cycles []string
	err    error
}

func (s *fakeSink) SendMessage(ctx context.Context, text string) error {
	if s.err != nil {
		return homework.DeliveryError(s.err)
	}
	s.sent = append(s.sent, text)
	s.cycles = append(s.cycles, notifier.CycleFrom(ctx))
	return nil
}

var t0 = time.Unix(500, 0)

func newTestPoller(f Fetcher, s Sink, opts ...Option) *Poller {
	n := 0
	base := []Option{
		WithClock(func() time.Time { return t0 }),
		WithIDs(func() string { n++; return fmt.Sprintf("c%d", n) }),
	}
	return New(f, s, logx.Nop(), append(base, opts...)...)
}

const (
	scenarioA = `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1000}`
	scenarioB = `{"homeworks":[],"current_date":1000}`
)

func TestScenarioApproved(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{body: scenarioA}}}
	s := &fakeSink{}
	p := newTestPoller(f, s)

	res := p.RunCycle(context.Background())
	want := `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`
	if res.Err != nil || !res.Delivered {
		t.Fatalf("result = %+v", res)
	}
	if len(s.sent) != 1 || s.sent[0] != want {
		t.Fatalf("sent = %q", s.sent)
	}
	if p.Cursor() != 1000 || res.Cursor != 1000 {
		t.Fatalf("cursor = %d", p.Cursor())
	}
	if f.cursors[0] != t0.Unix() {
		t.Fatalf("first fetch cursor = %d, want now", f.cursors[0])
	}
	if s.cycles[0] != "c1" {
		t.Fatalf("cycle id = %q", s.cycles[0])
	}
}

func TestScenarioNoNewStatusesDedup(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{body: scenarioB}}}
	s := &fakeSink{}
	p := newTestPoller(f, s)

	first := p.RunCycle(context.Background())
	second := p.RunCycle(context.Background())

	if len(s.sent) != 1 || s.sent[0] != homework.NoNewStatuses {
		t.Fatalf("sent = %q", s.sent)
	}
	if !first.Delivered || !second.Suppressed || second.Delivered {
		t.Fatalf("first = %+v, second = %+v", first, second)
	}
	if p.Cursor() != 1000 {
		t.Fatalf("cursor = %d", p.Cursor())
	}
}

func TestScenarioEndpointFailureKeepsCursor(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{
		{err: homework.EndpointStatusError(503)},
		{err: homework.EndpointStatusError(503)},
		{body: scenarioB},
	}}
	s := &fakeSink{}
	p := newTestPoller(f, s, WithCursor(700))

	res := p.RunCycle(context.Background())
	if !errors.Is(res.Err, homework.ErrEndpoint) {
		t.Fatalf("err = %v", res.Err)
	}
	if p.Cursor() != 700 {
		t.Fatalf("cursor moved to %d", p.Cursor())
	}
	if len(s.sent) != 1 || !strings.HasPrefix(s.sent[0], "Сбой в работе программы: ") || !strings.Contains(s.sent[0], "503") {
		t.Fatalf("sent = %q", s.sent)
	}

	// Same failure again: deduplicated.
	p.RunCycle(context.Background())
	if len(s.sent) != 1 {
		t.Fatalf("repeated failure was re-sent: %q", s.sent)
	}

	// Recovery retries with the same cursor.
	p.RunCycle(context.Background())
	if f.cursors[0] != 700 || f.cursors[1] != 700 || f.cursors[2] != 700 {
		t.Fatalf("cursors = %v", f.cursors)
	}
	if p.Cursor() != 1000 || s.sent[len(s.sent)-1] != homework.NoNewStatuses {
		t.Fatalf("cursor = %d, sent = %q", p.Cursor(), s.sent)
	}
}

func TestValidationAndFormatFailuresLeaveCursor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		kind homework.Kind
	}{
		{name: "missing homeworks", body: `{"current_date":1000}`, kind: homework.KindMissingField},
		{name: "missing current_date", body: `{"homeworks":[]}`, kind: homework.KindMissingField},
		{name: "homeworks not a list", body: `{"homeworks":{},"current_date":1000}`, kind: homework.KindTypeMismatch},
		{name: "not an object", body: `[]`, kind: homework.KindTypeMismatch},
		{name: "missing name", body: `{"homeworks":[{"status":"approved"}],"current_date":1000}`, kind: homework.KindMissingField},
		{name: "unknown verdict", body: `{"homeworks":[{"homework_name":"x","status":"lost"}],"current_date":1000}`, kind: homework.KindUnknownVerdict},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &fakeSink{}
			p := newTestPoller(&fakeFetcher{replies: []reply{{body: tt.body}}}, s, WithCursor(42))
			res := p.RunCycle(context.Background())
			if homework.KindOf(res.Err) != tt.kind {
				t.Fatalf("kind = %v (%v), want %v", homework.KindOf(res.Err), res.Err, tt.kind)
			}
			if p.Cursor() != 42 {
				t.Fatalf("cursor = %d, want unchanged", p.Cursor())
			}
			if len(s.sent) != 1 || s.sent[0] != homework.FailureMessage(res.Err) {
				t.Fatalf("sent = %q", s.sent)
			}
		})
	}
}

func TestNonIntegerCurrentDateFallsBackToNow(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{body: `{"homeworks":[],"current_date":"later"}`}}}
	p := newTestPoller(f, &fakeSink{}, WithCursor(1))
	if res := p.RunCycle(context.Background()); res.Err != nil {
		t.Fatalf("err = %v", res.Err)
	}
	if p.Cursor() != t0.Unix() {
		t.Fatalf("cursor = %d, want %d", p.Cursor(), t0.Unix())
	}
}

func TestDeliveryFailureIsSwallowedAndRetried(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{body: scenarioA}}}
	s := &fakeSink{err: errors.New("telegram down")}
	p := newTestPoller(f, s, WithCursor(1))

	res := p.RunCycle(context.Background())
	if res.Err != nil {
		t.Fatalf("delivery failure must not become a cycle error: %v", res.Err)
	}
	if !errors.Is(res.DeliveryErr, homework.ErrDelivery) || res.Delivered {
		t.Fatalf("result = %+v", res)
	}
	if p.Cursor() != 1 || p.LastMessage() != "" {
		t.Fatalf("state changed after failed delivery: cursor=%d last=%q", p.Cursor(), p.LastMessage())
	}

	s.err = nil
	res = p.RunCycle(context.Background())
	if !res.Delivered || p.Cursor() != 1000 || len(s.sent) != 1 {
		t.Fatalf("retry result = %+v, sent = %q", res, s.sent)
	}
}

func TestErrorReportDeliveryFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{err: homework.EndpointError(errors.New("dial tcp: refused"))}}}
	p := newTestPoller(f, &fakeSink{err: errors.New("telegram down")}, WithCursor(5))
	res := p.RunCycle(context.Background())
	if !errors.Is(res.Err, homework.ErrEndpoint) || res.DeliveryErr == nil {
		t.Fatalf("result = %+v", res)
	}
	if p.Cursor() != 5 {
		t.Fatalf("cursor = %d", p.Cursor())
	}
}

func TestRunLoopsUntilCanceled(t *testing.T) {
	t.Parallel()
	f := &fakeFetcher{replies: []reply{{body: scenarioA}, {body: scenarioB}, {body: scenarioB}}}
	s := &fakeSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		delays  []time.Duration
		results []CycleResult
	)
	p := newTestPoller(f, s,
		WithSchedule(FixedInterval(90*time.Second)),
		WithCycleHook(func(r CycleResult) { results = append(results, r) }),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			if len(delays) == 3 {
				cancel()
			}
			return ctx.Err()
		}),
	)

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("cycles = %d, want 3", len(results))
	}
	for _, d := range delays {
		if d != 90*time.Second {
			t.Fatalf("delay = %v", d)
		}
	}
	// approved, then "no new statuses" once, then suppressed.
	if len(s.sent) != 2 || s.sent[1] != homework.NoNewStatuses {
		t.Fatalf("sent = %q", s.sent)
	}
	if f.cursors[1] != 1000 {
		t.Fatalf("second fetch cursor = %d", f.cursors[1])
	}
}

func TestRunCanceledDuringFetchDoesNotReport(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	s := &fakeSink{}
	p := newTestPoller(fetchFunc(func(ctx context.Context, _ int64) (homework.StatusResponse, error) {
		cancel()
		return homework.StatusResponse{}, homework.EndpointError(ctx.Err())
	}), s)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.sent) != 0 {
		t.Fatalf("sent = %q", s.sent)
	}
}

type fetchFunc func(ctx context.Context, cursor int64) (homework.StatusResponse, error)

func (f fetchFunc) GetAPIAnswer(ctx context.Context, cursor int64) (homework.StatusResponse, error) {
	return f(ctx, cursor)
}

func TestSetScheduleAffectsNextSleep(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var p *Poller
	var delays []time.Duration
	p = newTestPoller(&fakeFetcher{replies: []reply{{body: scenarioB}}}, &fakeSink{},
		WithCycleHook(func(CycleResult) {
			if len(delays) == 1 {
				p.SetSchedule(FixedInterval(time.Minute))
			}
		}),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			if len(delays) == 2 {
				cancel()
			}
			return ctx.Err()
		}),
	)
	_ = p.Run(ctx)
	if len(delays) != 2 || delays[0] != defaultInterval || delays[1] != time.Minute {
		t.Fatalf("delays = %v", delays)
	}
}
