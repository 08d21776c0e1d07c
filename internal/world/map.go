package world

import (
	"fmt"
	"math"
)

// Map holds the dense width×height tile grid. Tiles are stored in
// x-major order, which is also the order every grid-wide pass visits them.
type Map struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	tiles []*Tile
}

// NewMap creates a grid with every tile allocated and resource stocks empty.
func NewMap(width, height int) *Map {
	m := &Map{
		Width:  width,
		Height: height,
		tiles:  make([]*Tile, width*height),
	}
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			c := Coord{X: x, Y: y}
			m.tiles[m.index(c)] = &Tile{Coord: c, Resources: make(Resources)}
		}
	}
	return m
}

func (m *Map) index(c Coord) int {
	return c.X*m.Height + c.Y
}

// InBounds reports whether the coordinate lies on the grid.
func (m *Map) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < m.Width && c.Y >= 0 && c.Y < m.Height
}

// Get returns the tile at the given coordinate, or nil if out of bounds.
func (m *Map) Get(c Coord) *Tile {
	if !m.InBounds(c) {
		return nil
	}
	return m.tiles[m.index(c)]
}

// Tiles returns every tile in x-major order. The slice is shared; callers
// must not reorder it.
func (m *Map) Tiles() []*Tile {
	return m.tiles
}

// Coords returns every coordinate in x-major order.
func (m *Map) Coords() []Coord {
	out := make([]Coord, len(m.tiles))
	for i, t := range m.tiles {
		out[i] = t.Coord
	}
	return out
}

// TileCount returns the total number of tiles.
func (m *Map) TileCount() int {
	return len(m.tiles)
}

// Resource returns the quantity of kind at c; 0 for a missing tile or kind.
func (m *Map) Resource(c Coord, kind ResourceKind) float64 {
	t := m.Get(c)
	if t == nil {
		return 0
	}
	return t.Resources[kind]
}

// ClimateAt returns the climate at c, NeutralClimate for a missing tile.
func (m *Map) ClimateAt(c Coord) Climate {
	t := m.Get(c)
	if t == nil {
		return NeutralClimate()
	}
	return t.Climate
}

// Clone returns a deep copy of the grid.
func (m *Map) Clone() *Map {
	out := &Map{Width: m.Width, Height: m.Height, tiles: make([]*Tile, len(m.tiles))}
	for i, t := range m.tiles {
		cp := *t
		cp.Resources = t.Resources.Clone()
		out.tiles[i] = &cp
	}
	return out
}

// TerrainCounts returns a summary of terrain type distribution.
func (m *Map) TerrainCounts() map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.tiles {
		counts[t.Terrain]++
	}
	return counts
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tiles=%d)", m.Width, m.Height, m.TileCount())
}

// Distance returns the Euclidean distance between two coordinates.
func Distance(a, b Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Within returns every grid coordinate at Euclidean distance <= radius from
// center, center first, then the rest in x-major order. Coordinates off the
// grid are skipped.
func (m *Map) Within(center Coord, radius int) []Coord {
	var out []Coord
	if m.InBounds(center) {
		out = append(out, center)
	}
	r := float64(radius)
	for x := center.X - radius; x <= center.X+radius; x++ {
		for y := center.Y - radius; y <= center.Y+radius; y++ {
			c := Coord{X: x, Y: y}
			if c == center || !m.InBounds(c) {
				continue
			}
			if Distance(c, center) <= r {
				out = append(out, c)
			}
		}
	}
	return out
}
