// Package backoff decides whether a deferred candidate is retried and when.
package backoff

import (
	"fmt"
	"math"
	"time"

	"solana-sniper/internal/domain"
)

// Rule is the retry ceiling and fixed delay for one reason code.
type Rule struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

// Config configures the policy. Rules override the built-in table per reason.
type Config struct {
	Rules         map[string]Rule `mapstructure:"rules"`
	MinAgeMinutes float64         `mapstructure:"-"` // shared with the gate
}

// Decision is the outcome of Decide.
type Decision struct {
	Retry  bool
	Delay  time.Duration
	Reason string
}

// WindowSchedule reports the time until the next trading window opens.
type WindowSchedule interface {
	UntilNextOpen(now time.Time) (time.Duration, bool)
}

// Dynamic delay bounds.
const (
	minWindowDelay     = 60 * time.Second
	unknownWindowDelay = 300 * time.Second
	minTooYoungDelay   = 90 * time.Second
)

// DefaultRules is the static reason table.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		domain.ReasonOutOfWindow:    {MaxAttempts: 48, Delay: unknownWindowDelay},
		domain.ReasonBlockedHour:    {MaxAttempts: 24, Delay: 10 * time.Minute},
		domain.ReasonTooYoung:       {MaxAttempts: 10, Delay: minTooYoungDelay},
		domain.ReasonEarlyZeroLiq:   {MaxAttempts: 6, Delay: 60 * time.Second},
		domain.ReasonHoldersPending: {MaxAttempts: 8, Delay: 90 * time.Second},
		domain.ReasonLowLiquidity:   {MaxAttempts: 4, Delay: 5 * time.Minute},
		domain.ReasonLowVolume:      {MaxAttempts: 4, Delay: 5 * time.Minute},
		domain.ReasonLowHolders:     {MaxAttempts: 4, Delay: 5 * time.Minute},
		domain.ReasonMcapLow:        {MaxAttempts: 4, Delay: 5 * time.Minute},
		domain.ReasonHighVolume:     {MaxAttempts: 2, Delay: 10 * time.Minute},
		domain.ReasonSellPressure:   {MaxAttempts: 2, Delay: 5 * time.Minute},
		domain.ReasonOther:          {MaxAttempts: 3, Delay: 2 * time.Minute},
	}
}

// Policy maps (reason, attempts) to a retry decision. Pure and safe for concurrent use.
type Policy struct {
	rules    map[string]Rule
	minAge   float64
	schedule WindowSchedule
}

// New builds a policy. schedule may be nil when no trading windows exist.
func New(cfg Config, schedule WindowSchedule) (*Policy, error) {
	rules := DefaultRules()
	for reason, r := range cfg.Rules {
		if r.MaxAttempts < 0 || r.Delay < 0 {
			return nil, fmt.Errorf("backoff rule %q: negative values", reason)
		}
		rules[reason] = r
	}
	for _, reason := range []string{domain.ReasonTooOld, domain.ReasonMcapHigh, domain.ReasonBadChain, domain.ReasonBadAddress} {
		rules[reason] = Rule{}
	}
	return &Policy{rules: rules, minAge: cfg.MinAgeMinutes, schedule: schedule}, nil
}

// Rule returns the effective rule for reason, mapping unknown reasons to "other".
func (p *Policy) Rule(reason string) (string, Rule) {
	if domain.IsHardReject(reason) {
		return reason, Rule{}
	}
	if r, ok := p.rules[reason]; ok {
		return reason, r
	}
	return domain.ReasonOther, p.rules[domain.ReasonOther]
}

// Decide returns whether the candidate is retried after attempts prior tries.
// c may be nil; firstSeen backs the age estimate when c carries no age.
func (p *Policy) Decide(reason string, attempts int, firstSeen time.Time, c *domain.Candidate, now time.Time) Decision {
	reason, rule := p.Rule(reason)
	d := Decision{
		Retry:  attempts < rule.MaxAttempts,
		Reason: reason,
	}
	if !d.Retry {
		return d
	}

	switch reason {
	case domain.ReasonOutOfWindow:
		d.Delay = p.windowDelay(now)
	case domain.ReasonTooYoung:
		d.Delay = p.tooYoungDelay(firstSeen, c, now)
	default:
		d.Delay = rule.Delay
	}
	return d
}

func (p *Policy) windowDelay(now time.Time) time.Duration {
	if p.schedule == nil {
		return unknownWindowDelay
	}
	until, ok := p.schedule.UntilNextOpen(now)
	if !ok {
		return unknownWindowDelay
	}
	return maxDuration(until, minWindowDelay)
}

func (p *Policy) tooYoungDelay(firstSeen time.Time, c *domain.Candidate, now time.Time) time.Duration {
	var ageMinutes float64
	switch {
	case c != nil && c.AgeKnown():
		ageMinutes = c.Age()
	case !firstSeen.IsZero():
		ageMinutes = now.Sub(firstSeen).Minutes()
	default:
		return minTooYoungDelay
	}
	remaining := math.Max(p.minAge-ageMinutes, 0)
	return maxDuration(time.Duration(remaining*float64(time.Minute)), minTooYoungDelay)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
