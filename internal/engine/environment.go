// Environmental update: seasons, climate drift, resource regeneration and
// disaster triggering. Runs once per turn before anything else.
package engine

import (
	"context"
	"math"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/world"
)

// TurnsPerYear is the length of the seasonal cycle.
const TurnsPerYear = 4

// DefaultDisasterProbability is the per-turn chance of a natural disaster.
const DefaultDisasterProbability = 0.05

// Season constants, indexed by turn mod TurnsPerYear. Summer is the peak
// of the seasonal factor and winter its trough.
const (
	SeasonSpring = 0
	SeasonSummer = 1
	SeasonAutumn = 2
	SeasonWinter = 3
)

// SeasonName returns a human-readable season name for a turn.
func SeasonName(turn uint64) string {
	switch turn % TurnsPerYear {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	default:
		return "Winter"
	}
}

// SeasonalFactor returns sin(2π·(turn mod 4)/4).
func SeasonalFactor(turn uint64) float64 {
	return math.Sin(2 * math.Pi * float64(turn%TurnsPerYear) / TurnsPerYear)
}

// WorldEngine advances the natural environment by one turn.
type WorldEngine struct {
	DisasterProbability float64

	rng *entropy.Source
}

// NewWorldEngine creates the environment updater. It shares rng with the rest
// of the run.
func NewWorldEngine(rng *entropy.Source, disasterProbability float64) *WorldEngine {
	return &WorldEngine{DisasterProbability: disasterProbability, rng: rng}
}

// Name implements Agent.
func (w *WorldEngine) Name() string { return "world-engine" }

// Process implements Agent.
func (w *WorldEngine) Process(_ context.Context, s *WorldState) error {
	w.AdvanceTurn(s)
	return nil
}

// AdvanceTurn increments the turn, evolves climate, regenerates renewable
// resources and possibly triggers a disaster.
func (w *WorldEngine) AdvanceTurn(s *WorldState) *WorldState {
	s.Turn++

	w.evolveClimate(s)
	regenerateResources(s)

	if w.rng.Chance(w.DisasterProbability) {
		ApplyDisaster(s, rollDisaster(s, w.rng))
	}
	return s
}

// evolveClimate drifts every tile's weather toward the season. Temperature
// moves at most 1.2° and precipitation at most 2.5mm per turn.
func (w *WorldEngine) evolveClimate(s *WorldState) {
	season := SeasonalFactor(s.Turn)

	for _, t := range s.Map.Tiles() {
		c := &t.Climate

		c.Temperature += (season*10 + w.rng.Uniform(-2, 2)) * 0.1
		c.Precipitation += (season*20 + w.rng.Uniform(-5, 5)) * 0.1

		c.WindSpeed = math.Max(0, c.WindSpeed+w.rng.Uniform(-1, 1))
		c.WindDirection = wrapDegrees(c.WindDirection + w.rng.Uniform(-10, 10))
	}
}

// wrapDegrees maps an angle into [0, 360).
func wrapDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}

// regenerateResources grows food by climate and terrain, and regrows
// forest wood, both capped at world.RenewableCap.
func regenerateResources(s *WorldState) {
	for _, t := range s.Map.Tiles() {
		if food, ok := t.Resources[world.ResourceFood]; ok {
			g := GrowthFactor(t.Terrain, t.Climate)
			t.Resources[world.ResourceFood] = math.Min(world.RenewableCap, food*(1+g*0.1))
		}
		if wood, ok := t.Resources[world.ResourceWood]; ok && t.Terrain == world.TerrainForest {
			t.Resources[world.ResourceWood] = math.Min(world.RenewableCap, wood*1.02)
		}
	}
}

// GrowthFactor scores how well food grows on a tile: terrain contribution
// plus temperature and precipitation suitability.
func GrowthFactor(terrain world.Terrain, c world.Climate) float64 {
	g := 0.0

	switch terrain {
	case world.TerrainPlains:
		g += 0.5
	case world.TerrainForest:
		g += 0.3
	}

	// Best between 15 and 25°.
	switch temp := c.Temperature; {
	case temp >= 15 && temp <= 25:
		g += 0.5
	case (temp >= 5 && temp < 15) || (temp > 25 && temp <= 35):
		g += 0.3
	default:
		g += 0.1
	}

	// Best between 40 and 60mm.
	switch precip := c.Precipitation; {
	case precip >= 40 && precip <= 60:
		g += 0.5
	case (precip >= 20 && precip < 40) || (precip > 60 && precip <= 80):
		g += 0.3
	default:
		g += 0.1
	}

	return g
}
