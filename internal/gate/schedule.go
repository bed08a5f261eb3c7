package gate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// window is a daily interval in minutes since local midnight, end exclusive.
type window struct {
	start int
	end   int
}

func (w window) contains(minute int) bool {
	if w.start <= w.end {
		return minute >= w.start && minute < w.end
	}
	// wraps midnight
	return minute >= w.start || minute < w.end
}

// Schedule answers trading-window and blocked-hour questions in one timezone.
type Schedule struct {
	loc     *time.Location
	windows []window
	blocked map[int]bool
}

// NewSchedule parses windows ("HH:MM-HH:MM") and blocked hours.
func NewSchedule(timezone string, windows []string, blockedHours []int) (*Schedule, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	s := &Schedule{loc: loc, blocked: make(map[int]bool)}
	for _, raw := range windows {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		w, err := parseWindow(raw)
		if err != nil {
			return nil, err
		}
		s.windows = append(s.windows, w)
	}
	for _, h := range blockedHours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("blocked hour %d out of range", h)
		}
		s.blocked[h] = true
	}
	return s, nil
}

func parseWindow(raw string) (window, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return window{}, fmt.Errorf("trading window %q: want HH:MM-HH:MM", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return window{}, fmt.Errorf("trading window %q: %w", raw, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return window{}, fmt.Errorf("trading window %q: %w", raw, err)
	}
	if start == end {
		return window{}, fmt.Errorf("trading window %q is empty", raw)
	}
	return window{start: start, end: end}, nil
}

func parseClock(s string) (int, error) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	total := h*60 + m
	if total > minutesPerDay {
		return 0, fmt.Errorf("clock %q past midnight", s)
	}
	return total % minutesPerDay, nil
}

// HasWindows reports whether trading windows are configured.
func (s *Schedule) HasWindows() bool {
	return len(s.windows) > 0
}

// InWindow reports whether now falls in any window. True when none are configured.
func (s *Schedule) InWindow(now time.Time) bool {
	if len(s.windows) == 0 {
		return true
	}
	minute := minuteOfDay(now.In(s.loc))
	for _, w := range s.windows {
		if w.contains(minute) {
			return true
		}
	}
	return false
}

// Blocked reports whether the local hour of now is blocked.
func (s *Schedule) Blocked(now time.Time) bool {
	if len(s.blocked) == 0 {
		return false
	}
	return s.blocked[now.In(s.loc).Hour()]
}

// UntilNextOpen returns the time until the next window opens.
// Returns false when no windows are configured.
func (s *Schedule) UntilNextOpen(now time.Time) (time.Duration, bool) {
	if len(s.windows) == 0 {
		return 0, false
	}
	local := now.In(s.loc)
	minute := minuteOfDay(local)
	best := -1
	for _, w := range s.windows {
		if w.contains(minute) {
			return 0, true
		}
		delta := (w.start - minute + minutesPerDay) % minutesPerDay
		if best < 0 || delta < best {
			best = delta
		}
	}
	// minute granularity; drop the seconds already elapsed in the current minute
	elapsed := time.Duration(local.Second())*time.Second + time.Duration(local.Nanosecond())
	return time.Duration(best)*time.Minute - elapsed, true
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
