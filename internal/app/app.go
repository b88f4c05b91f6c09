// Package app wires configuration, logging, the status API client, the chat
// sender and the poll loop into a running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/runtime/supervisor"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	telegram "homeworkbot/internal/transport/telegram/adapter"
	logx "homeworkbot/pkg/logx"
)

// ErrMissingTokens is returned by New when a required credential is absent.
var ErrMissingTokens = errors.New("required configuration is missing")

// Options tune how New assembles the app.
type Options struct {
	// DryRun prints messages to Out instead of sending them to Telegram.
	// Only the status API token is required in this mode.
	DryRun bool
	Out    io.Writer

	// TelegramURL overrides the Bot API base URL.
	TelegramURL string

	// Since sets the initial cursor (unix seconds). Zero means now.
	Since int64

	// Poller options appended after the defaults (tests inject clock/sleep).
	PollerOptions []poller.Option
}

type App struct {
	cfgm *config.Manager
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service

	sender  kit.Sender
	client  *practicum.Client
	journal storage.Journal
	notif   *notifier.Service
	poll    *poller.Poller
	sd      *sdNotifier

	sup *supervisor.Supervisor
}

// New loads the configuration, runs the credential gate and builds every
// component. A failed gate is logged at critical level and returned as
// ErrMissingTokens; the caller decides the exit.
func New(ctx context.Context, cfgm *config.Manager, opts Options) (*App, error) {
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateRuntime(cfg)
	})
	cfg, err := cfgm.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Telegram log mirroring is enabled only after the target is set, so the
	// first Apply doesn't warn about a missing target.
	logCfg := mapLogConfig(cfg)
	bootCfg := logCfg
	bootCfg.Telegram.Enabled = false
	logs, root := logx.New(bootCfg, nil)
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	if missing := missingFor(cfg, opts.DryRun); len(missing) > 0 {
		log.Critical("required configuration is missing, exiting", logx.String("missing", strings.Join(missing, ",")))
		_ = logs.Close()
		return nil, fmt.Errorf("%w: %s", ErrMissingTokens, strings.Join(missing, ", "))
	}

	a := &App{cfgm: cfgm, cfg: cfg, log: log, logs: logs, sd: newSDNotifier(root.With(logx.String("comp", "systemd")))}
	if err := a.build(opts, root); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func missingFor(cfg *config.Config, dryRun bool) []string {
	missing := config.MissingTokens(cfg)
	if !dryRun {
		return missing
	}
	var out []string
	for _, m := range missing {
		if m == config.EnvPracticumToken {
			out = append(out, m)
		}
	}
	return out
}

func (a *App) build(opts Options, root logx.Logger) error {
	cfg := a.cfg

	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		a.sender = kit.NewWriterSender(out)
	} else {
		sendTimeout, err := config.ParseDurationOrDefault("telegram.send_timeout", cfg.Telegram.SendTimeout, config.DefaultSendTimeout)
		if err != nil {
			return err
		}
		// Offline: the bot only sends, so the startup getMe handshake is skipped
		// and a brief Telegram outage cannot stop the process from starting.
		ad, err := telegram.New(telegram.Config{
			Token:   cfg.Telegram.Token,
			URL:     opts.TelegramURL,
			Offline: true,
			Timeout: sendTimeout,
		}, root.With(logx.String("comp", "telegram")))
		if err != nil {
			return err
		}
		a.sender = ad
		a.logs.SetSender(ad)
	}
	a.applyLogging(cfg)

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return err
	} else if enabled {
		j, err := storage.Open(sc, root.With(logx.String("comp", "storage")))
		if err != nil {
			return err
		}
		a.journal = j
		a.log.Info("delivery journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	pc, err := mapPracticumConfig(cfg)
	if err != nil {
		return err
	}
	a.client, err = practicum.New(pc, root.With(logx.String("comp", "practicum")))
	if err != nil {
		return err
	}

	nc, err := mapNotifierConfig(cfg)
	if err != nil {
		return err
	}
	a.notif = notifier.New(nc, a.sender, a.journal, root.With(logx.String("comp", "notifier")))

	sched, err := mapSchedule(cfg)
	if err != nil {
		return err
	}
	popts := []poller.Option{
		poller.WithSchedule(sched),
		poller.WithCursor(opts.Since),
		poller.WithCycleHook(a.sd.Cycle),
	}
	a.poll = poller.New(a.client, a.notif, root.With(logx.String("comp", "poller")), append(popts, opts.PollerOptions...)...)
	return nil
}

// applyLogging sets the Telegram log target and applies the logging section.
func (a *App) applyLogging(cfg *config.Config) {
	if chatID, err := cfg.Telegram.GroupLogInt(); err == nil {
		// Zero clears the target on reload.
		a.logs.SetTelegramTarget(chatID, cfg.Logging.Telegram.ThreadID)
	}
	a.logs.Apply(mapLogConfig(cfg))
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Poller() *poller.Poller { return a.poll }

func (a *App) Notifier() *notifier.Service { return a.notif }

// RunOnce executes a single poll cycle.
func (a *App) RunOnce(ctx context.Context) poller.CycleResult {
	return a.poll.RunCycle(ctx)
}

// Run holds the instance lock and runs the poll loop and the config watcher
// until ctx is done. It returns the first supervisor error, if any.
func (a *App) Run(ctx context.Context) error {
	lock, err := acquireLock(a.cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.log.Warn("lock release failed", logx.Err(err))
		}
	}()

	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("systemd.watchdog", a.sd.watchdogLoop)
	a.sup.GoRestart("poller", a.poll.Run, supervisor.WithRestartBackoff(time.Second, time.Minute))

	a.sd.Ready()
	a.log.Info("homeworkbot started",
		logx.Int64("chat_id", a.notif.Target().ChatID),
		logx.String("schedule", a.poll.Schedule().String()),
		logx.String("config", a.cfgm.Path()),
	)

	<-a.sup.Context().Done()
	a.sd.Stopping()
	a.log.Info("stopping")

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err = a.sup.Stop(stopCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("shutdown timed out waiting for goroutines")
		return nil
	}
	return err
}

// reloadLoop applies live config changes: logging and the poll schedule.
// Other sections are reported as requiring a restart.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.applyReload(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyReload(oldCfg, newCfg *config.Config) {
	changed, attrs, restart := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(changed) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	if len(restart) > 0 {
		a.log.Warn("config sections changed that require a restart", logx.String("sections", strings.Join(restart, ",")))
	}

	a.applyLogging(newCfg)
	if sched, err := mapSchedule(newCfg); err != nil {
		a.log.Warn("invalid poll schedule; keeping previous", logx.Err(err))
	} else {
		a.poll.SetSchedule(sched)
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

// Close releases the journal and the logging sinks.
func (a *App) Close() error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}

// History returns the newest journal entries for the configured storage.
func History(ctx context.Context, cfgm *config.Manager, limit int) ([]storage.Delivery, error) {
	cfg, err := cfgm.Load(ctx)
	if err != nil {
		return nil, err
	}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, storage.ErrDisabled
	}
	j, err := storage.Open(sc, logx.Nop())
	if err != nil {
		return nil, err
	}
	defer j.Close()
	return j.Recent(ctx, limit)
}
