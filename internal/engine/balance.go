// Power balancing: compares civilizations by composite power score and,
// when the gap grows too wide, weakens the strongest and helps the weakest.
package engine

import (
	"context"
	"log/slog"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// Balance defaults.
const (
	DefaultBalanceThreshold   = 2.0
	DefaultBalanceIntensity   = 0.2
	DefaultBreakthroughChance = 0.3

	// breakthroughGain is the technology gained by a breakthrough, as a
	// fraction of the current level.
	breakthroughGain = 0.1
)

// Balance event subtypes.
const (
	SubtypeMilitaryReduction      = "military_reduction"
	SubtypeResourceBoost          = "resource_boost"
	SubtypeTechnologyBreakthrough = "technology_breakthrough"
)

// PowerAnalysis is the outcome of comparing every civilization's score.
type PowerAnalysis struct {
	Scores    map[social.CivilizationID]float64 `json:"scores"`
	Strongest social.CivilizationID             `json:"strongest,omitempty"`
	Weakest   social.CivilizationID             `json:"weakest,omitempty"`
	Ratio     float64                           `json:"ratio"`
}

// AnalyzePower scores every civilization. With no civilizations the ratio is
// a neutral 1.0. Ties go to the lowest id.
func AnalyzePower(s *WorldState) PowerAnalysis {
	ids := social.SortedIDs(s.Civilizations)
	return analyze(len(ids), func(i int) *social.Civilization {
		return s.Civilizations[ids[i]]
	})
}

// analyze scores n civilizations visited in ascending id order.
func analyze(n int, at func(i int) *social.Civilization) PowerAnalysis {
	a := PowerAnalysis{
		Scores: make(map[social.CivilizationID]float64, n),
		Ratio:  1.0,
	}
	if n == 0 {
		return a
	}

	var strongest, weakest float64
	for i := 0; i < n; i++ {
		c := at(i)
		score := c.PowerScore()
		a.Scores[c.ID] = score
		if i == 0 || score > strongest {
			strongest, a.Strongest = score, c.ID
		}
		if i == 0 || score < weakest {
			weakest, a.Weakest = score, c.ID
		}
	}

	// Floor the denominator at 1 so near-zero scores cannot blow up.
	a.Ratio = strongest / max(weakest, 1)
	return a
}

// BalanceReport records one balance pass, whether or not it corrected anything.
type BalanceReport struct {
	Turn        uint64         `json:"turn"`
	Before      PowerAnalysis  `json:"before"`
	Applied     bool           `json:"applied"`
	After       *PowerAnalysis `json:"after,omitempty"`
	Corrections []Event        `json:"corrections,omitempty"`
}

// Balancer is the power-balance corrector. Its History is the audit trail of
// every pass; it lives outside WorldState so analysis-only passes leave the
// state untouched.
type Balancer struct {
	Threshold          float64
	Intensity          float64
	BreakthroughChance float64

	History []BalanceReport

	rng *entropy.Source
}

// NewBalancer creates a balancer with default tuning. It shares rng with the
// rest of the run.
func NewBalancer(rng *entropy.Source) *Balancer {
	return &Balancer{
		Threshold:          DefaultBalanceThreshold,
		Intensity:          DefaultBalanceIntensity,
		BreakthroughChance: DefaultBreakthroughChance,
		rng:                rng,
	}
}

// Name implements Agent.
func (b *Balancer) Name() string { return "balancer" }

// Process implements Agent.
func (b *Balancer) Process(_ context.Context, s *WorldState) error {
	b.Balance(s)
	return nil
}

// Balance analyzes the state and, when the strongest-to-weakest ratio
// exceeds the threshold, applies corrections to the live civilization
// records. The report is appended to History and returned.
func (b *Balancer) Balance(s *WorldState) BalanceReport {
	before := AnalyzePower(s)
	report := BalanceReport{Turn: s.Turn, Before: before}

	if before.Ratio <= b.Threshold || before.Strongest == "" {
		b.History = append(b.History, report)
		slog.Debug("balance pass", "turn", s.Turn, "ratio", before.Ratio, "applied", false)
		return report
	}

	mark := len(s.Events)
	b.correct(s, before)

	after := AnalyzePower(s)
	report.Applied = true
	report.After = &after
	report.Corrections = append([]Event(nil), s.Events[mark:]...)
	b.History = append(b.History, report)

	slog.Info("balance corrections applied",
		"turn", s.Turn,
		"strongest", before.Strongest,
		"weakest", before.Weakest,
		"ratio_before", before.Ratio,
		"ratio_after", after.Ratio,
		"corrections", len(report.Corrections),
	)
	return report
}

func (b *Balancer) correct(s *WorldState, a PowerAnalysis) {
	strong := s.Civilizations[a.Strongest]
	weak := s.Civilizations[a.Weakest]

	reduction := strong.MilitaryPower * b.Intensity
	strong.MilitaryPower = max(strong.MilitaryPower-reduction, 0)
	s.AddEvent(Event{
		Type:    EventBalance,
		Subtype: SubtypeMilitaryReduction,
		Target:  strong.ID,
		Amount:  reduction,
		Reason:  "Internal conflicts weakened military",
	})

	boost := 0.0
	for _, k := range world.AllResources {
		if v, ok := weak.Resources[k]; ok {
			inc := v * b.Intensity
			weak.Resources[k] = v + inc
			boost += inc
		}
	}
	s.AddEvent(Event{
		Type:    EventBalance,
		Subtype: SubtypeResourceBoost,
		Target:  weak.ID,
		Amount:  boost,
		Reason:  "Discovery of new resource deposits",
	})

	if b.rng.Chance(b.BreakthroughChance) {
		gain := weak.TechnologyLevel * breakthroughGain
		weak.TechnologyLevel += gain
		s.AddEvent(Event{
			Type:    EventBalance,
			Subtype: SubtypeTechnologyBreakthrough,
			Target:  weak.ID,
			Amount:  gain,
			Reason:  "Unexpected technological breakthrough",
		})
	}
}

// Last returns the most recent report, or false before the first pass.
func (b *Balancer) Last() (BalanceReport, bool) {
	if len(b.History) == 0 {
		return BalanceReport{}, false
	}
	return b.History[len(b.History)-1], true
}
