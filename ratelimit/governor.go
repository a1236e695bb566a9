// Package ratelimit implements sliding-window admission control across the
// ordered quality tiers of a hosted provider.
//
// Each tier keeps its own window of request timestamps covering the trailing
// minute. A request asks for a tier; if that tier is full the governor walks
// toward cheaper tiers until one has room. Degradation only ever moves down
// the list.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Window is the span over which requests are counted.
const Window = 60 * time.Second

// ErrSaturated is returned when every tier from the requested one downward
// is at its ceiling.
var ErrSaturated = errors.New("all tiers are at their rate limit")

// ErrUnknownTier is returned when the requested tier is not configured.
var ErrUnknownTier = errors.New("unknown tier")

// Tier is a quality level of the hosted provider with its own ceiling.
type Tier struct {
	Name  string
	Model string
	RPM   int
}

// DefaultTiers returns the tiers ordered from most to least capable.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "pro", Model: "gemini-2.5-pro", RPM: 2},
		{Name: "flash", Model: "gemini-2.5-flash", RPM: 10},
		{Name: "flash-lite", Model: "gemini-2.5-flash-lite", RPM: 15},
	}
}

// Admission describes where a request was admitted.
type Admission struct {
	Tier      Tier
	Requested string
}

// Degraded reports whether the request landed on a different tier than asked.
func (a Admission) Degraded() bool {
	return a.Tier.Name != a.Requested
}

// Governor tracks per-tier windows.
type Governor struct {
	mu      sync.Mutex
	tiers   []Tier
	windows map[string][]time.Time
	now     func() time.Time
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGovernor creates a governor over tiers ordered from highest to lowest
// capability. Tiers with a non-positive ceiling are rejected.
func NewGovernor(tiers []Tier, opts ...Option) (*Governor, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one tier is required")
	}
	seen := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("tier name is required")
		}
		if t.RPM <= 0 {
			return nil, fmt.Errorf("tier %s: requests per minute must be positive", t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate tier %s", t.Name)
		}
		seen[t.Name] = true
	}

	g := &Governor{
		tiers:   append([]Tier(nil), tiers...),
		windows: make(map[string][]time.Time, len(tiers)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Tiers returns the configured tiers in order.
func (g *Governor) Tiers() []Tier {
	return append([]Tier(nil), g.tiers...)
}

// Tier looks up a tier by name.
func (g *Governor) Tier(name string) (Tier, bool) {
	for _, t := range g.tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}

// Admit prunes every window, then scans from the requested tier toward the
// lower tiers and records the request on the first tier with room.
func (g *Governor) Admit(requested string) (Admission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)

	start := -1
	for i, t := range g.tiers {
		if t.Name == requested {
			start = i
			break
		}
	}
	if start < 0 {
		return Admission{}, fmt.Errorf("%w: %s", ErrUnknownTier, requested)
	}

	for _, t := range g.tiers[start:] {
		if len(g.windows[t.Name]) < t.RPM {
			g.windows[t.Name] = append(g.windows[t.Name], now)
			return Admission{Tier: t, Requested: requested}, nil
		}
	}
	return Admission{Requested: requested}, ErrSaturated
}

// Usage returns how many requests each tier has in its current window.
func (g *Governor) Usage() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(g.now())
	usage := make(map[string]int, len(g.tiers))
	for _, t := range g.tiers {
		usage[t.Name] = len(g.windows[t.Name])
	}
	return usage
}

// pruneLocked rebuilds each window keeping only timestamps inside the
// trailing Window. Existing entries are never modified.
func (g *Governor) pruneLocked(now time.Time) {
	cutoff := now.Add(-Window)
	for name, window := range g.windows {
		kept := make([]time.Time, 0, len(window))
		for _, ts := range window {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		g.windows[name] = kept
	}
}
