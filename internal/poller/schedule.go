package poller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleKind describes the normalized kind of a schedule string.
type ScheduleKind int

const (
	ScheduleInterval ScheduleKind = iota
	ScheduleCron
)

func (k ScheduleKind) String() string {
	if k == ScheduleCron {
		return "cron"
	}
	return "interval"
}

// Schedule decides when the next cycle starts.
//
// Supported forms:
//   - Interval duration: "600s", "10m", "1h30m"
//   - Interval HH:MM: "00:10" (10 minutes), "02:30" (2 hours 30 minutes)
//   - Cron: "*/10 * * * *", "0 */2 * * * *" (with seconds), "@hourly", "@every 10m"
//
// Optional prefixes:
//   - "cron:" forces cron parsing
//   - "interval:" or "every:" forces interval parsing
//
// Intervals are fixed-delay: the next cycle starts Every after the previous
// one finished.
type Schedule struct {
	Kind   ScheduleKind
	Every  time.Duration
	Cron   string
	Source string // "duration" | "hhmm" | "cron"

	sched cron.Schedule
}

var (
	reHHMM     = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)
	cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// ParseSchedule parses a schedule string into either a cron expression or an interval duration.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseInterval(strings.TrimSpace(s[len("interval:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseInterval(strings.TrimSpace(s[len("every:"):]))
	}

	// Whitespace or a leading '@' means cron.
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(s)
	}
	if sc, err := parseInterval(s); err == nil {
		return sc, nil
	}
	return Schedule{}, fmt.Errorf(
		"invalid schedule %q (use a duration like '600s', HH:MM like '00:10', or cron like '*/10 * * * *')",
		raw,
	)
}

// MustParseSchedule is ParseSchedule for constants.
func MustParseSchedule(raw string) Schedule {
	s, err := ParseSchedule(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// FixedInterval returns an interval schedule of d.
func FixedInterval(d time.Duration) Schedule {
	return Schedule{Kind: ScheduleInterval, Every: d, Source: "duration"}
}

func parseCron(expr string) (Schedule, error) {
	if expr == "" {
		return Schedule{}, fmt.Errorf("cron schedule required after 'cron:'")
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return Schedule{Kind: ScheduleCron, Cron: expr, Source: "cron", sched: sched}, nil
}

func parseInterval(v string) (Schedule, error) {
	if v == "" {
		return Schedule{}, fmt.Errorf("interval required")
	}
	src := "duration"
	var d time.Duration
	if m := reHHMM.FindStringSubmatch(v); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return Schedule{}, fmt.Errorf("invalid minutes in %q", v)
		}
		d = time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		src = "hhmm"
	} else {
		var err error
		d, err = time.ParseDuration(v)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid interval %q (use HH:MM or Go duration like '600s'/'10m')", v)
		}
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("interval must be > 0")
	}
	return Schedule{Kind: ScheduleInterval, Every: d, Source: src}, nil
}

// Delay returns how long to wait after a cycle that finished at now.
func (s Schedule) Delay(now time.Time) time.Duration {
	switch s.Kind {
	case ScheduleCron:
		if s.sched == nil {
			return 0
		}
		next := s.sched.Next(now)
		if next.IsZero() {
			// No future activation (e.g. Feb 30); fall back to the default cadence.
			return defaultInterval
		}
		return next.Sub(now)
	default:
		if s.Every <= 0 {
			return defaultInterval
		}
		return s.Every
	}
}

func (s Schedule) String() string {
	if s.Kind == ScheduleCron {
		return s.Cron
	}
	return s.Every.String()
}
