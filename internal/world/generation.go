// World generation: terrain, resource distribution and initial climate.
// Every random draw comes from the run's entropy.Source, in a fixed grid
// order, so the same seed and config always produce the same world.
package world

import (
	"errors"
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/civ-world/internal/entropy"
)

// ErrInvalidConfig is returned for a generation config that cannot produce a world.
var ErrInvalidConfig = errors.New("invalid world config")

// Resource distribution modes.
const (
	DistributionRandom = "random"
	DistributionFixed  = "fixed"
)

// Terrain modes.
const (
	TerrainModeUniform = "uniform" // every tile draws its terrain independently
	TerrainModeSimplex = "simplex" // coherent continents from simplex noise
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width                int
	Height               int
	ResourceDistribution string // DistributionRandom adds scattered rare deposits
	TerrainMode          string // TerrainModeUniform (default) or TerrainModeSimplex

	// Simplex mode thresholds (0.0 to 1.0).
	SeaLevel      float64
	MountainLevel float64
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:                20,
		Height:               20,
		ResourceDistribution: DistributionRandom,
		TerrainMode:          TerrainModeUniform,
		SeaLevel:             0.30,
		MountainLevel:        0.72,
	}
}

// Validate rejects configs that cannot produce a grid.
func (c GenConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d must have positive dimensions", ErrInvalidConfig, c.Width, c.Height)
	}
	switch c.TerrainMode {
	case "", TerrainModeUniform, TerrainModeSimplex:
	default:
		return fmt.Errorf("%w: unknown terrain mode %q", ErrInvalidConfig, c.TerrainMode)
	}
	if c.TerrainMode == TerrainModeSimplex && c.SeaLevel >= c.MountainLevel {
		return fmt.Errorf("%w: sea level %.2f must be below mountain level %.2f", ErrInvalidConfig, c.SeaLevel, c.MountainLevel)
	}
	return nil
}

// Generate builds a complete grid with terrain, resources and climate.
func Generate(cfg GenConfig, rng *entropy.Source) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := NewMap(cfg.Width, cfg.Height)

	if cfg.TerrainMode == TerrainModeSimplex {
		generateSimplexTerrain(m, cfg, rng)
	} else {
		generateUniformTerrain(m, rng)
	}

	for _, t := range m.Tiles() {
		t.Resources = baseResources(t.Terrain, rng)
	}

	if cfg.ResourceDistribution == DistributionRandom {
		scatterRareResources(m, rng)
	}

	for _, t := range m.Tiles() {
		t.Climate = initialClimate(t.Terrain, rng)
	}

	return m, nil
}

// generateUniformTerrain draws each tile's terrain uniformly and independently.
func generateUniformTerrain(m *Map, rng *entropy.Source) {
	for _, t := range m.Tiles() {
		t.Terrain = AllTerrains[rng.Intn(len(AllTerrains))]
		setRelief(t, rng.Float, rng)
	}
}

// setRelief assigns elevation and fertility from the tile's terrain.
// Elevation draws come from elev so simplex mode can supply noise instead.
func setRelief(t *Tile, elev func() float64, rng *entropy.Source) {
	if t.Terrain == TerrainOcean {
		t.Elevation = 0
	} else {
		t.Elevation = elev()
	}
	if t.Terrain.Fertile() {
		t.Fertility = rng.Float()
	} else {
		t.Fertility = 0.1
	}
}

// generateSimplexTerrain derives terrain from layered elevation and moisture
// noise. The noise seeds are drawn from rng so the mode stays reproducible.
func generateSimplexTerrain(m *Map, cfg GenConfig, rng *entropy.Source) {
	seed := rng.Int63()
	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	for _, t := range m.Tiles() {
		x, y := float64(t.Coord.X), float64(t.Coord.Y)
		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
		moist := octaveNoise(moistNoise, x, y, 3, 0.06, 0.5)

		// Latitude: 0 at the horizontal midline, 1 at the top/bottom edges.
		lat := 0.0
		if m.Height > 1 {
			lat = math.Abs(y/float64(m.Height-1)*2 - 1)
		}

		t.Terrain = deriveTerrain(elev, moist, lat, cfg)
		setRelief(t, func() float64 { return clamp01(elev) }, rng)
	}

	markCoast(m)
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, moist, lat float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev > cfg.MountainLevel {
		return TerrainMountains
	}
	if lat > 0.85 {
		return TerrainTundra
	}
	if moist < 0.3 {
		return TerrainDesert
	}
	if moist > 0.55 {
		return TerrainForest
	}
	return TerrainPlains
}

// markCoast converts low plains next to ocean into coast.
func markCoast(m *Map) {
	var toMark []*Tile
	for _, t := range m.Tiles() {
		if t.Terrain != TerrainPlains {
			continue
		}
		for _, n := range neighbors(t.Coord) {
			if nt := m.Get(n); nt != nil && nt.Terrain == TerrainOcean {
				toMark = append(toMark, t)
				break
			}
		}
	}
	for _, t := range toMark {
		t.Terrain = TerrainCoast
		t.Fertility = 0.1
	}
}

func neighbors(c Coord) [4]Coord {
	return [4]Coord{
		{X: c.X + 1, Y: c.Y},
		{X: c.X - 1, Y: c.Y},
		{X: c.X, Y: c.Y + 1},
		{X: c.X, Y: c.Y - 1},
	}
}

// baseResources populates initial stocks based on terrain.
func baseResources(terrain Terrain, rng *entropy.Source) Resources {
	res := make(Resources)

	switch terrain {
	case TerrainPlains:
		res[ResourceFood] = rng.Uniform(50, 100)
	case TerrainForest:
		res[ResourceWood] = rng.Uniform(50, 100)
		res[ResourceFood] = rng.Uniform(20, 50)
	case TerrainMountains:
		res[ResourceStone] = rng.Uniform(50, 100)
		res[ResourceIron] = rng.Uniform(10, 30)
		if rng.Chance(0.2) {
			res[ResourceGold] = rng.Uniform(5, 20)
		}
	case TerrainDesert:
		if rng.Chance(0.1) {
			res[ResourceOil] = rng.Uniform(20, 50)
		}
	}

	return res
}

var rareResources = [...]ResourceKind{ResourceGold, ResourceOil, ResourceUranium}

// scatterRareResources gives each tile a 5% chance of one rare deposit.
func scatterRareResources(m *Map, rng *entropy.Source) {
	for _, t := range m.Tiles() {
		if !rng.Chance(0.05) {
			continue
		}
		kind := rareResources[rng.Intn(len(rareResources))]
		t.Resources[kind] = rng.Uniform(5, 15)
	}
}

// initialClimate picks the tile's zone and jitters the zone's base values.
func initialClimate(terrain Terrain, rng *entropy.Source) Climate {
	zone, forced := ZoneForTerrain(terrain)
	if !forced {
		zone = AllZones[rng.Intn(len(AllZones))]
	}
	return Climate{
		Zone:          zone,
		Temperature:   BaseTemperature(zone) + rng.Uniform(-3, 3),
		Precipitation: BasePrecipitation(zone) + rng.Uniform(-10, 10),
		WindSpeed:     rng.Uniform(0, 10),
		WindDirection: rng.Uniform(0, 360),
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
