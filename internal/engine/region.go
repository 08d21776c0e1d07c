// Read-only aggregation over arbitrary sets of tiles.
package engine

import "github.com/talgya/civ-world/internal/world"

// RegionClimate is the averaged climate of a set of tiles.
type RegionClimate struct {
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"wind_speed"`

	// WindDirection is the arithmetic mean of raw degrees, not a circular
	// mean: 350° and 10° average to 180°.
	WindDirection float64 `json:"wind_direction"`

	Tiles int `json:"tiles"` // tiles found on the grid
}

// SumResources totals resource quantities over coords. Coordinates off the
// grid contribute nothing; kinds absent everywhere are absent from the result.
func (s *WorldState) SumResources(coords []world.Coord) world.Resources {
	out := make(world.Resources)
	for _, c := range coords {
		t := s.Map.Get(c)
		if t == nil {
			continue
		}
		for _, k := range world.AllResources {
			if v, ok := t.Resources[k]; ok {
				out[k] += v
			}
		}
	}
	return out
}

// AverageClimate averages temperature, precipitation and wind over coords.
// Coordinates off the grid count toward the average with the neutral
// climate (15°, 40mm, no wind); wind direction averages only the tiles
// found. An empty region yields the zero value.
func (s *WorldState) AverageClimate(coords []world.Coord) RegionClimate {
	var rc RegionClimate
	if len(coords) == 0 {
		return rc
	}

	var dirSum float64
	for _, c := range coords {
		cl := s.Map.ClimateAt(c)
		rc.Temperature += cl.Temperature
		rc.Precipitation += cl.Precipitation
		rc.WindSpeed += cl.WindSpeed
		if s.Map.InBounds(c) {
			dirSum += cl.WindDirection
			rc.Tiles++
		}
	}

	n := float64(len(coords))
	rc.Temperature /= n
	rc.Precipitation /= n
	rc.WindSpeed /= n
	if rc.Tiles > 0 {
		rc.WindDirection = dirSum / float64(rc.Tiles)
	}
	return rc
}

// DisastersInRegion returns every recorded disaster whose area intersects
// coords, oldest first.
func (s *WorldState) DisastersInRegion(coords []world.Coord) []Disaster {
	return s.filterDisasters(coords, false, 0)
}

// RecentDisastersInRegion is DisastersInRegion limited to disasters at most
// turns turns old; 0 means the current turn only.
func (s *WorldState) RecentDisastersInRegion(coords []world.Coord, turns uint64) []Disaster {
	return s.filterDisasters(coords, true, turns)
}

func (s *WorldState) filterDisasters(coords []world.Coord, bounded bool, turns uint64) []Disaster {
	set := make(map[world.Coord]bool, len(coords))
	for _, c := range coords {
		set[c] = true
	}

	var out []Disaster
	for _, d := range s.Disasters {
		if bounded && s.Turn-d.Turn > turns {
			continue
		}
		if d.Affects(set) {
			out = append(out, d)
		}
	}
	return out
}
