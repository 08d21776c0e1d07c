package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

func TestAnalyzePowerNoCivilizations(t *testing.T) {
	a := AnalyzePower(blankState(2, 2))
	assert.Equal(t, 1.0, a.Ratio)
	assert.Empty(t, a.Strongest)
	assert.Empty(t, a.Weakest)

	b := NewBalancer(entropy.New(1))
	s := blankState(2, 2)
	report := b.Balance(s)
	assert.False(t, report.Applied)
	assert.Empty(t, s.Events)
	assert.Len(t, b.History, 1)
}

func TestAnalyzePowerFloorsDenominator(t *testing.T) {
	s := blankState(1, 1, civ("big", 10), civ("zero", 0))
	a := AnalyzePower(s)
	// 4 / max(0, 1)
	assert.InDelta(t, 4.0, a.Ratio, 1e-12)
	assert.Equal(t, "big", a.Strongest)
	assert.Equal(t, "zero", a.Weakest)
}

func TestAnalyzePowerTieBreaksByID(t *testing.T) {
	s := blankState(1, 1, civ("b", 5), civ("a", 5), civ("c", 5))
	a := AnalyzePower(s)
	assert.Equal(t, "a", a.Strongest)
	assert.Equal(t, "a", a.Weakest)
	assert.Equal(t, 1.0, a.Ratio)
}

func TestBalanceTriggersAboveThreshold(t *testing.T) {
	// Scores 10 and 4: ratio 2.5.
	strong := civ("strong", 25)
	weak := civ("weak", 10)
	weak.Resources[world.ResourceFood] = 50
	weak.Resources[world.ResourceIron] = 7
	weak.TechnologyLevel = 0
	s := blankState(1, 1, strong, weak)
	s.Turn = 4

	b := NewBalancer(entropy.New(1))
	require.InDelta(t, 2.5, AnalyzePower(s).Ratio, 1e-12)

	report := b.Balance(s)

	require.True(t, report.Applied)
	assert.InDelta(t, 25-25*DefaultBalanceIntensity, strong.MilitaryPower, 1e-9)
	assert.InDelta(t, 50+50*DefaultBalanceIntensity, weak.Resources[world.ResourceFood], 1e-9)
	assert.InDelta(t, 7+7*DefaultBalanceIntensity, weak.Resources[world.ResourceIron], 1e-9)
	assert.Equal(t, 10.0, weak.MilitaryPower)
	assert.Len(t, weak.Resources, 2, "no resource kinds are created")

	require.GreaterOrEqual(t, len(s.Events), 2)
	assert.Equal(t, SubtypeMilitaryReduction, s.Events[0].Subtype)
	assert.Equal(t, "strong", s.Events[0].Target)
	assert.InDelta(t, 25*DefaultBalanceIntensity, s.Events[0].Amount, 1e-9)
	assert.Equal(t, SubtypeResourceBoost, s.Events[1].Subtype)
	assert.Equal(t, "weak", s.Events[1].Target)
	for _, e := range s.Events {
		assert.Equal(t, EventBalance, e.Type)
		assert.Equal(t, uint64(4), e.Turn)
	}
	assert.Equal(t, s.Events, report.Corrections)
	require.NotNil(t, report.After)
	assert.Less(t, report.After.Ratio, report.Before.Ratio)
}

func TestBalanceBelowThresholdLeavesRecordsUnchanged(t *testing.T) {
	// Scores 10 and 6: ratio 1.67.
	strong := civ("strong", 25)
	weak := civ("weak", 15)
	weak.Resources[world.ResourceFood] = 50
	s := blankState(1, 1, strong, weak)

	wantStrong, wantWeak := strong.Clone(), weak.Clone()

	b := NewBalancer(entropy.New(1))
	report := b.Balance(s)

	assert.False(t, report.Applied)
	assert.InDelta(t, 10.0/6.0, report.Before.Ratio, 1e-12)
	assert.Equal(t, wantStrong, s.Civilization("strong"))
	assert.Equal(t, wantWeak, s.Civilization("weak"))
	assert.Empty(t, s.Events)
	assert.Len(t, b.History, 1, "the analysis pass is still recorded")
}

func TestBalanceAnalysisOnlyPassIsIdempotent(t *testing.T) {
	s := blankState(3, 3, civ("a", 12), civ("b", 10), civ("c", 9))
	b := NewBalancer(entropy.New(3))

	b.Balance(s)
	first := s.Snapshot()
	b.Balance(s)
	second := s.Snapshot()

	assert.Equal(t, first, second)
	assert.Len(t, b.History, 2)
	assert.Equal(t, b.History[0].Before, b.History[1].Before)
}

func TestBalanceBreakthroughChance(t *testing.T) {
	run := func(chance float64) *WorldState {
		weak := civ("weak", 1)
		weak.TechnologyLevel = 10
		s := blankState(1, 1, civ("strong", 100), weak)
		b := NewBalancer(entropy.New(1))
		b.BreakthroughChance = chance
		b.Balance(s)
		return s
	}

	always := run(1)
	assert.InDelta(t, 11.0, always.Civilization("weak").TechnologyLevel, 1e-9)
	require.Len(t, always.Events, 3)
	assert.Equal(t, SubtypeTechnologyBreakthrough, always.Events[2].Subtype)

	never := run(0)
	assert.Equal(t, 10.0, never.Civilization("weak").TechnologyLevel)
	assert.Len(t, never.Events, 2)
}

func TestBalanceNeverProducesNegativePower(t *testing.T) {
	s := blankState(1, 1, civ("strong", 50), civ("weak", 0))
	b := NewBalancer(entropy.New(1))
	b.Intensity = 1

	for i := 0; i < 10; i++ {
		b.Balance(s)
		for _, c := range s.Civilizations {
			assert.GreaterOrEqual(t, c.MilitaryPower, 0.0)
			assert.GreaterOrEqual(t, c.TechnologyLevel, 0.0)
		}
	}
}

func TestBalanceUsesLiveRecords(t *testing.T) {
	strong := civ("strong", 25)
	s := blankState(1, 1, strong, civ("weak", 10))
	b := NewBalancer(entropy.New(1))

	b.Balance(s)
	require.InDelta(t, 20.0, s.Civilization("strong").MilitaryPower, 1e-9)

	// A second pass sees the reduced military, not the analysis from the first.
	// Scores 8 and 4: ratio 2.0, at the threshold, so nothing more happens.
	report := b.Balance(s)
	assert.False(t, report.Applied)
	assert.Same(t, strong, s.Civilization("strong"))
}

func TestBalancerLast(t *testing.T) {
	b := NewBalancer(entropy.New(1))
	_, ok := b.Last()
	assert.False(t, ok)

	b.Balance(blankState(1, 1, &social.Civilization{ID: "solo", Resources: world.Resources{}}))
	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 1.0, last.Before.Ratio)
}
