// Package poller runs the fetch, validate, format and notify cycle.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/notifier"
	logx "homeworkbot/pkg/logx"
)

const defaultInterval = 600 * time.Second

// Fetcher returns the status payload for submissions changed since cursor.
type Fetcher interface {
	GetAPIAnswer(ctx context.Context, cursor int64) (homework.StatusResponse, error)
}

// Sink delivers a message to the user.
type Sink interface {
	SendMessage(ctx context.Context, text string) error
}

// CycleResult describes one pass through the loop.
type CycleResult struct {
	ID      string
	Started time.Time
	Took    time.Duration
	// Cursor is the value after the cycle.
	Cursor  int64
	Message string
	// Err is the fetch, validate or format error, if any.
	Err error
	// DeliveryErr is set when Message was due but could not be sent.
	DeliveryErr error
	Delivered   bool
	// Suppressed means Message equals the last delivered one.
	Suppressed bool
}

type Option func(*Poller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSleep overrides the pause between cycles. fn must return ctx.Err()
// when ctx is done first.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithIDs overrides the cycle id generator.
func WithIDs(fn func() string) Option {
	return func(p *Poller) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithCycleHook registers fn to run after every cycle, before the sleep.
func WithCycleHook(fn func(CycleResult)) Option {
	return func(p *Poller) { p.onCycle = fn }
}

// WithSchedule sets the initial schedule.
func WithSchedule(s Schedule) Option {
	return func(p *Poller) { p.sched.Store(&s) }
}

// WithCursor sets the initial cursor (unix seconds) instead of "now".
func WithCursor(c int64) Option {
	return func(p *Poller) { p.cursor = c }
}

// Poller owns the loop state: the cursor and the last delivered message.
// Both only change inside RunCycle, which callers must not run concurrently.
type Poller struct {
	fetch Fetcher
	sink  Sink
	log   logx.Logger

	sched atomic.Pointer[Schedule]

	mu     sync.Mutex
	cursor int64
	last   string

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	newID   func() string
	onCycle func(CycleResult)
}

func New(fetch Fetcher, sink Sink, log logx.Logger, opts ...Option) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	p := &Poller{
		fetch: fetch,
		sink:  sink,
		log:   log,
		now:   time.Now,
		sleep: sleepCtx,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	if p.sched.Load() == nil {
		s := FixedInterval(defaultInterval)
		p.sched.Store(&s)
	}
	if p.cursor == 0 {
		p.cursor = p.now().Unix()
	}
	return p
}

// Cursor returns the current poll cursor.
func (p *Poller) Cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// LastMessage returns the last delivered message ("" before the first one).
func (p *Poller) LastMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Schedule returns the active schedule.
func (p *Poller) Schedule() Schedule { return *p.sched.Load() }

// SetSchedule swaps the schedule; it takes effect from the next sleep.
func (p *Poller) SetSchedule(s Schedule) {
	old := p.sched.Swap(&s)
	if old == nil || old.String() != s.String() {
		p.log.Info("poll schedule updated", logx.String("schedule", s.String()), logx.String("kind", s.Kind.String()))
	}
}

// Run loops until ctx is done. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poll loop started", logx.Int64("cursor", p.Cursor()), logx.String("schedule", p.Schedule().String()))
	for {
		if ctx.Err() != nil {
			break
		}
		res := p.RunCycle(ctx)
		if p.onCycle != nil {
			p.onCycle(res)
		}
		delay := p.Schedule().Delay(p.now())
		p.log.Debug("sleeping", logx.Duration("for", delay))
		if err := p.sleep(ctx, delay); err != nil {
			break
		}
	}
	p.log.Info("poll loop stopped", logx.Int64("cursor", p.Cursor()))
	return nil
}

// RunCycle performs one fetch, validate, format and notify pass.
//
// Any fetch, validate or format error is logged and reported to the sink as
// a failure message; delivery errors are logged and never escalate. The
// cursor advances only when the fetched payload validated, formatted, and its
// message was delivered or matched the last delivered one.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := CycleResult{ID: p.newID(), Started: p.now()}
	log := p.log.With(logx.String("cycle", res.ID))
	ctx = notifier.WithCycle(ctx, res.ID)

	msg, next, err := p.evaluate(ctx, log)
	if err != nil && ctx.Err() != nil {
		// Shutting down mid-cycle is not a failure worth reporting.
		res.Err = ctx.Err()
		res.Cursor = p.cursor
		res.Took = p.now().Sub(res.Started)
		return res
	}
	if err != nil {
		res.Err = err
		log.Error("poll cycle failed", logx.Err(err), logx.String("kind", homework.KindOf(err).String()), logx.Int64("cursor", p.cursor))
		msg = homework.FailureMessage(err)
	}
	res.Message = msg

	switch {
	case msg == p.last:
		res.Suppressed = true
		log.Debug("message unchanged, not sending")
	default:
		if derr := p.sink.SendMessage(ctx, msg); derr != nil {
			res.DeliveryErr = derr
			// Already logged by the sink; nothing else to do here.
			break
		}
		res.Delivered = true
		p.last = msg
	}

	if err == nil && res.DeliveryErr == nil {
		p.cursor = next
	}
	res.Cursor = p.cursor
	res.Took = p.now().Sub(res.Started)
	return res
}

func (p *Poller) evaluate(ctx context.Context, log logx.Logger) (msg string, next int64, err error) {
	resp, err := p.fetch.GetAPIAnswer(ctx, p.cursor)
	if err != nil {
		return "", 0, err
	}
	items, err := homework.CheckResponse(resp)
	if err != nil {
		return "", 0, err
	}

	next, ok := resp.CurrentDate()
	if !ok {
		next = p.now().Unix()
		log.Warn("current_date is not an integer, using local time", logx.Int64("cursor", next))
	}

	if len(items) == 0 {
		log.Debug("no new statuses")
		return homework.NoNewStatuses, next, nil
	}
	msg, err = homework.ParseStatus(items[0])
	if err != nil {
		return "", 0, err
	}
	return msg, next, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
