package world

import "fmt"

// ClimateZone classifies a tile's long-run climate.
type ClimateZone uint8

const (
	ZoneTropical ClimateZone = iota
	ZoneTemperate
	ZoneArid
	ZoneContinental
	ZonePolar
)

// AllZones lists the climate zones in draw order.
var AllZones = [...]ClimateZone{ZoneTropical, ZoneTemperate, ZoneArid, ZoneContinental, ZonePolar}

var zoneNames = [...]string{"tropical", "temperate", "arid", "continental", "polar"}

func (z ClimateZone) String() string {
	if int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return "unknown"
}

// MarshalText encodes the zone by name.
func (z ClimateZone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText decodes a zone name.
func (z *ClimateZone) UnmarshalText(b []byte) error {
	for i, name := range zoneNames {
		if name == string(b) {
			*z = ClimateZone(i)
			return nil
		}
	}
	return fmt.Errorf("unknown climate zone %q", b)
}

// Neutral climate values used when a lookup misses.
const (
	NeutralTemperature   = 15.0
	NeutralPrecipitation = 40.0
)

type zoneBase struct {
	temperature   float64 // °C
	precipitation float64 // mm
}

var zoneBases = map[ClimateZone]zoneBase{
	ZoneTropical:    {28, 80},
	ZoneTemperate:   {15, 50},
	ZoneArid:        {25, 10},
	ZoneContinental: {10, 40},
	ZonePolar:       {-10, 20},
}

// BaseTemperature returns the zone's base temperature, NeutralTemperature
// for an unknown zone.
func BaseTemperature(z ClimateZone) float64 {
	if b, ok := zoneBases[z]; ok {
		return b.temperature
	}
	return NeutralTemperature
}

// BasePrecipitation returns the zone's base precipitation, NeutralPrecipitation
// for an unknown zone.
func BasePrecipitation(z ClimateZone) float64 {
	if b, ok := zoneBases[z]; ok {
		return b.precipitation
	}
	return NeutralPrecipitation
}

// Climate is the evolving weather state of one tile. Temperature and
// precipitation are unbounded; wind speed stays >= 0 and wind direction
// within [0, 360).
type Climate struct {
	Zone          ClimateZone `json:"zone"`
	Temperature   float64     `json:"temperature"`
	Precipitation float64     `json:"precipitation"`
	WindSpeed     float64     `json:"wind_speed"`
	WindDirection float64     `json:"wind_direction"`
}

// NeutralClimate is returned for coordinates outside the grid.
func NeutralClimate() Climate {
	return Climate{
		Zone:          ZoneTemperate,
		Temperature:   NeutralTemperature,
		Precipitation: NeutralPrecipitation,
	}
}

// ZoneForTerrain returns the zone forced by a terrain kind, and false when the
// zone is free to be drawn.
func ZoneForTerrain(t Terrain) (ClimateZone, bool) {
	switch t {
	case TerrainOcean, TerrainCoast:
		return ZoneTemperate, true
	case TerrainTundra:
		return ZonePolar, true
	case TerrainDesert:
		return ZoneArid, true
	}
	return 0, false
}
