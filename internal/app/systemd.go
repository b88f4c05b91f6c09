package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"homeworkbot/internal/poller"
	logx "homeworkbot/pkg/logx"
)

// sdNotifier reports lifecycle state to systemd. Outside systemd every call
// is a no-op.
type sdNotifier struct {
	log    logx.Logger
	notify func(state string) (bool, error)
}

func newSDNotifier(log logx.Logger) *sdNotifier {
	return &sdNotifier{
		log:    log,
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
}

func (n *sdNotifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		n.log.Trace("sd_notify", logx.String("state", state))
	}
}

func (n *sdNotifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *sdNotifier) Stopping() { n.send(daemon.SdNotifyStopping) }
func (n *sdNotifier) Watchdog() { n.send(daemon.SdNotifyWatchdog) }

// Cycle pings the watchdog and publishes a one-line status.
func (n *sdNotifier) Cycle(res poller.CycleResult) {
	n.Watchdog()
	status := "last cycle ok"
	switch {
	case res.Err != nil:
		status = "last cycle failed: " + res.Err.Error()
	case res.DeliveryErr != nil:
		status = "last delivery failed"
	}
	// One assignment per line in the notify protocol.
	status = strings.ReplaceAll(status, "\n", " ")
	n.send(fmt.Sprintf("STATUS=%s (cursor %d)", status, res.Cursor))
}

// watchdogLoop keeps the watchdog fed between cycles, since the poll interval
// is usually longer than WatchdogSec. It returns immediately when systemd did
// not enable the watchdog.
func (n *sdNotifier) watchdogLoop(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n.Watchdog()
		}
	}
}
