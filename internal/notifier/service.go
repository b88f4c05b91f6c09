package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

var ErrNoSender = errors.New("notifier has no sender")

type cycleKey struct{}

// WithCycle tags ctx with the poll cycle id recorded alongside deliveries.
func WithCycle(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleFrom returns the cycle id set by WithCycle, if any.
func CycleFrom(ctx context.Context) string {
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}

// Service sends messages synchronously: the caller learns whether the
// message reached the chat.
//
// It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender  kit.Sender
	journal storage.Journal
	log     logx.Logger
	now     func() time.Time

	hmu     sync.Mutex
	history []HistoryItem
}

// New builds a Service. journal may be nil.
func New(cfg Config, sender kit.Sender, journal storage.Journal, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		sender:  sender,
		journal: journal,
		log:     log,
		now:     time.Now,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Target returns the chat the service delivers to.
func (s *Service) Target() kit.ChatTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Target
}

// SendMessage delivers text to the configured chat. Any failure is returned
// as a homework.ErrDelivery error and logged; success is logged at debug.
func (s *Service) SendMessage(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	log := s.log
	if cycle := CycleFrom(ctx); cycle != "" {
		log = log.With(logx.String("cycle", cycle))
	}

	if s.sender == nil {
		return s.fail(log, ErrNoSender)
	}
	if err := lim.Wait(ctx); err != nil {
		return s.fail(log, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	started := s.now()
	ref, err := s.sender.SendText(callCtx, cfg.Target, text, &kit.SendOptions{DisablePreview: true})
	cancel()
	if err != nil {
		return s.fail(log, err)
	}
	took := s.now().Sub(started)

	log.Debug("message delivered", logx.Int64("chat_id", cfg.Target.ChatID), logx.Int("message_id", ref.MessageID), logx.Duration("took", took))
	s.appendHistory(cfg.HistorySize, HistoryItem{At: started, Cycle: CycleFrom(ctx), Text: text, MessageID: ref.MessageID})
	s.record(ctx, storage.Delivery{
		At:        started,
		Cycle:     CycleFrom(ctx),
		ChatID:    cfg.Target.ChatID,
		ThreadID:  cfg.Target.ThreadID,
		MessageID: ref.MessageID,
		Text:      text,
		TookMS:    took.Milliseconds(),
	})
	return nil
}

func (s *Service) fail(log logx.Logger, err error) error {
	log.Error("message delivery failed", logx.Err(err))
	return homework.DeliveryError(err)
}

// record appends to the journal. Journal failures never fail a delivery.
func (s *Service) record(ctx context.Context, d storage.Delivery) {
	if s.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.journal.AppendDelivery(jctx, d); err != nil {
		s.log.Warn("journal append failed", logx.Err(err))
	}
}

// Snapshot returns delivered messages, oldest first.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(size int, it HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > size {
		s.history = s.history[len(s.history)-size:]
	}
	s.hmu.Unlock()
}
