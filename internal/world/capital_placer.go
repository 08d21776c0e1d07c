// Capital placement: finds suitable home tiles for civilizations.
package world

import (
	"math"
	"sort"
)

// PlaceCapitals picks count capital tiles on land, best sites first, keeping
// them at least min(width,height)/4 apart while enough candidates exist.
// Placement is a pure function of the map; it consumes no randomness.
func PlaceCapitals(m *Map, count int) []Coord {
	if count <= 0 {
		return nil
	}

	type scored struct {
		coord Coord
		score float64
	}
	var candidates []scored
	for _, t := range m.Tiles() {
		if s := capitalScore(m, t); s > 0 {
			candidates = append(candidates, scored{t.Coord, s})
		}
	}
	if len(candidates) == 0 {
		// All ocean: fall back to every tile in grid order.
		for _, t := range m.Tiles() {
			candidates = append(candidates, scored{t.Coord, 0})
		}
	}

	// Sort by score descending; grid order breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	minDist := float64(min(m.Width, m.Height)) / 4
	var capitals []Coord
	taken := make(map[Coord]bool)

	for _, c := range candidates {
		if len(capitals) >= count {
			break
		}
		if tooClose(c.coord, capitals, minDist) {
			continue
		}
		taken[c.coord] = true
		capitals = append(capitals, c.coord)
	}

	// Not enough room for the spacing rule: fill with the best remaining sites.
	for _, c := range candidates {
		if len(capitals) >= count {
			break
		}
		if taken[c.coord] {
			continue
		}
		taken[c.coord] = true
		capitals = append(capitals, c.coord)
	}

	// More civilizations than tiles: share the best site.
	for len(capitals) < count {
		capitals = append(capitals, candidates[0].coord)
	}

	return capitals
}

// capitalScore evaluates how desirable a tile is for a capital.
// Prefers fertile plains and forest with food, near terrain diversity.
func capitalScore(m *Map, t *Tile) float64 {
	score := 0.0

	switch t.Terrain {
	case TerrainPlains:
		score += 3.0
	case TerrainCoast:
		score += 2.5
	case TerrainForest:
		score += 1.5
	case TerrainDesert, TerrainTundra:
		score += 0.5
	case TerrainMountains:
		score += 0.3
	default:
		return 0
	}

	score += t.Fertility

	// Bonus for nearby terrain diversity (economic complexity).
	kinds := make(map[Terrain]bool)
	for _, n := range neighbors(t.Coord) {
		if nt := m.Get(n); nt != nil && nt.Terrain != TerrainOcean {
			kinds[nt.Terrain] = true
		}
	}
	score += float64(len(kinds)) * 0.3

	score += math.Log1p(t.Resources.Total()) * 0.2

	return score
}

func tooClose(c Coord, existing []Coord, minDist float64) bool {
	for _, e := range existing {
		if Distance(c, e) < minDist {
			return true
		}
	}
	return false
}
