package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGovernor(t *testing.T) (*Governor, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	g, err := NewGovernor([]Tier{
		{Name: "A", RPM: 2},
		{Name: "B", RPM: 10},
		{Name: "C", RPM: 15},
	}, WithClock(clock.Now))
	require.NoError(t, err)
	return g, clock
}

func TestAdmitDegradesToNextTier(t *testing.T) {
	g, clock := newTestGovernor(t)

	var degraded int
	for i := 0; i < 3; i++ {
		adm, err := g.Admit("A")
		require.NoError(t, err)
		if adm.Degraded() {
			degraded++
		}
		switch i {
		case 0, 1:
			assert.Equal(t, "A", adm.Tier.Name)
		case 2:
			assert.Equal(t, "B", adm.Tier.Name)
		}
		clock.Advance(5 * time.Second)
	}
	assert.Equal(t, 1, degraded)

	clock.Advance(61 * time.Second)
	adm, err := g.Admit("A")
	require.NoError(t, err)
	assert.Equal(t, "A", adm.Tier.Name)
	assert.False(t, adm.Degraded())
}

func TestAdmitNeverMovesUp(t *testing.T) {
	g, _ := newTestGovernor(t)

	adm, err := g.Admit("B")
	require.NoError(t, err)
	assert.Equal(t, "B", adm.Tier.Name)
	assert.Equal(t, 0, g.Usage()["A"])
}

func TestAdmitSaturated(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g, err := NewGovernor([]Tier{{Name: "A", RPM: 1}, {Name: "B", RPM: 1}}, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = g.Admit("A")
	require.NoError(t, err)
	_, err = g.Admit("A")
	require.NoError(t, err)

	_, err = g.Admit("A")
	assert.True(t, errors.Is(err, ErrSaturated))
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, g.Usage(), "rejected request must not be recorded")

	_, err = g.Admit("B")
	assert.ErrorIs(t, err, ErrSaturated)
}

func TestWindowBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	g, err := NewGovernor([]Tier{{Name: "A", RPM: 1}}, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = g.Admit("A")
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	_, err = g.Admit("A")
	assert.ErrorIs(t, err, ErrSaturated)

	clock.Advance(1 * time.Second)
	_, err = g.Admit("A")
	assert.NoError(t, err, "entry exactly one window old is pruned")
}

func TestAdmitUnknownTier(t *testing.T) {
	g, _ := newTestGovernor(t)
	_, err := g.Admit("Z")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestNewGovernorValidation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []Tier
	}{
		{"empty", nil},
		{"zero rpm", []Tier{{Name: "A", RPM: 0}}},
		{"missing name", []Tier{{RPM: 3}}},
		{"duplicate", []Tier{{Name: "A", RPM: 1}, {Name: "A", RPM: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGovernor(tt.tiers)
			assert.Error(t, err)
		})
	}
}

func TestDefaultTiersOrder(t *testing.T) {
	tiers := DefaultTiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, []int{2, 10, 15}, []int{tiers[0].RPM, tiers[1].RPM, tiers[2].RPM})
}
