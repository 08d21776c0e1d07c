// Package world provides the rectangular tile grid, terrain, resources and
// climate, and the procedural generation that builds them.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord is a tile position on the grid. X runs over [0, width) and Y over
// [0, height).
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the coordinate as "x,y".
func (c Coord) String() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

// ParseCoord parses an "x,y" coordinate.
func ParseCoord(s string) (Coord, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return Coord{}, fmt.Errorf("coordinate %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	return Coord{X: x, Y: y}, nil
}

// Terrain types for grid tiles.
type Terrain uint8

const (
	TerrainPlains Terrain = iota
	TerrainMountains
	TerrainForest
	TerrainDesert
	TerrainTundra
	TerrainCoast
	TerrainOcean
)

// AllTerrains lists every terrain kind in draw order.
var AllTerrains = [...]Terrain{
	TerrainPlains,
	TerrainMountains,
	TerrainForest,
	TerrainDesert,
	TerrainTundra,
	TerrainCoast,
	TerrainOcean,
}

var terrainNames = [...]string{"plains", "mountains", "forest", "desert", "tundra", "coast", "ocean"}

func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

// MarshalText encodes the terrain by name.
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a terrain name.
func (t *Terrain) UnmarshalText(b []byte) error {
	for i, name := range terrainNames {
		if name == string(b) {
			*t = Terrain(i)
			return nil
		}
	}
	return fmt.Errorf("unknown terrain %q", b)
}

// Fertile reports whether the terrain supports meaningful agriculture.
func (t Terrain) Fertile() bool {
	return t == TerrainPlains || t == TerrainForest
}

// ResourceKind enumerates the resources a tile or civilization can hold.
type ResourceKind uint8

const (
	ResourceFood ResourceKind = iota
	ResourceWood
	ResourceStone
	ResourceIron
	ResourceGold
	ResourceOil
	ResourceUranium
)

// AllResources lists every resource kind in a stable order.
var AllResources = [...]ResourceKind{
	ResourceFood,
	ResourceWood,
	ResourceStone,
	ResourceIron,
	ResourceGold,
	ResourceOil,
	ResourceUranium,
}

var resourceNames = [...]string{"food", "wood", "stone", "iron", "gold", "oil", "uranium"}

// ResourceNames returns the names of all resource kinds.
func ResourceNames() []string {
	return append([]string(nil), resourceNames[:]...)
}

func (r ResourceKind) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// ParseResourceKind looks a resource kind up by name.
func ParseResourceKind(name string) (ResourceKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range resourceNames {
		if n == name {
			return ResourceKind(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the kind by name so resource maps serialize as
// {"food": 12.5}.
func (r ResourceKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a resource name.
func (r *ResourceKind) UnmarshalText(b []byte) error {
	k, ok := ParseResourceKind(string(b))
	if !ok {
		return fmt.Errorf("unknown resource %q", b)
	}
	*r = k
	return nil
}

// Renewable reports whether the resource regrows and is held under RenewableCap.
func (r ResourceKind) Renewable() bool {
	return r == ResourceFood || r == ResourceWood
}

// RenewableCap is the soft ceiling for renewable resource quantities.
const RenewableCap = 100.0

// Resources maps a resource kind to a non-negative quantity.
type Resources map[ResourceKind]float64

// Get returns the quantity of a kind, 0 when absent.
func (r Resources) Get(kind ResourceKind) float64 {
	return r[kind]
}

// Has reports whether the kind is present in the stock.
func (r Resources) Has(kind ResourceKind) bool {
	_, ok := r[kind]
	return ok
}

// Clone returns an independent copy.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Scale multiplies every present kind in kinds by factor. With no kinds,
// every present kind is scaled.
func (r Resources) Scale(factor float64, kinds ...ResourceKind) {
	if len(kinds) == 0 {
		for k, v := range r {
			r[k] = nonNegative(v * factor)
		}
		return
	}
	for _, k := range kinds {
		if v, ok := r[k]; ok {
			r[k] = nonNegative(v * factor)
		}
	}
}

// Total sums all quantities.
func (r Resources) Total() float64 {
	total := 0.0
	for _, k := range AllResources {
		total += r[k]
	}
	return total
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Tile is one cell of the world grid.
type Tile struct {
	Coord   Coord   `json:"coord"`
	Terrain Terrain `json:"terrain"`

	Elevation float64 `json:"elevation"` // 0.0 for ocean, otherwise [0,1]
	Fertility float64 `json:"fertility"` // [0,1] on plains/forest, 0.1 elsewhere

	Resources Resources `json:"resources"`
	Climate   Climate   `json:"climate"`
}
