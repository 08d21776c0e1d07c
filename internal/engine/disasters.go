// Natural disasters: selection, area of effect and resource depletion.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/world"
)

// DisasterKind enumerates natural disasters.
type DisasterKind uint8

const (
	DisasterDrought DisasterKind = iota
	DisasterFlood
	DisasterEarthquake
	DisasterHurricane
	DisasterWildfire
)

// AllDisasterKinds lists disaster kinds in draw order.
var AllDisasterKinds = [...]DisasterKind{
	DisasterDrought,
	DisasterFlood,
	DisasterEarthquake,
	DisasterHurricane,
	DisasterWildfire,
}

var disasterNames = [...]string{"drought", "flood", "earthquake", "hurricane", "wildfire"}

func (k DisasterKind) String() string {
	if int(k) < len(disasterNames) {
		return disasterNames[k]
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k DisasterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a disaster name.
func (k *DisasterKind) UnmarshalText(b []byte) error {
	for i, name := range disasterNames {
		if name == string(b) {
			*k = DisasterKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown disaster kind %q", b)
}

// RadiusRange returns the inclusive radius range of the kind's area of effect.
func (k DisasterKind) RadiusRange() (lo, hi int) {
	if k == DisasterEarthquake || k == DisasterHurricane {
		return 3, 5
	}
	return 1, 3
}

// Loss returns the fraction of each affected resource a disaster of this
// kind and severity removes.
func (k DisasterKind) Loss(sev Severity) float64 {
	m := sev.Multiplier()
	switch k {
	case DisasterEarthquake:
		return m * 0.5
	case DisasterHurricane:
		return m * 0.7
	case DisasterWildfire:
		return m * 0.9
	default:
		return m
	}
}

// AffectedResources returns the resource kinds the disaster depletes; nil
// means every kind present on the tile.
func (k DisasterKind) AffectedResources() []world.ResourceKind {
	switch k {
	case DisasterDrought:
		return []world.ResourceKind{world.ResourceFood}
	case DisasterFlood, DisasterHurricane:
		return []world.ResourceKind{world.ResourceFood, world.ResourceWood}
	case DisasterWildfire:
		return []world.ResourceKind{world.ResourceWood, world.ResourceFood}
	default:
		return nil
	}
}

// Severity of a disaster.
type Severity uint8

const (
	SeverityMild Severity = iota
	SeverityModerate
	SeveritySevere
)

// AllSeverities lists severities in draw order.
var AllSeverities = [...]Severity{SeverityMild, SeverityModerate, SeveritySevere}

var severityNames = [...]string{"mild", "moderate", "severe"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	for i, name := range severityNames {
		if name == string(b) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Multiplier returns the severity's resource-loss multiplier.
func (s Severity) Multiplier() float64 {
	switch s {
	case SeverityMild:
		return 0.2
	case SeveritySevere:
		return 0.8
	default:
		return 0.5
	}
}

// Disaster is one entry of the append-only disaster history.
type Disaster struct {
	Kind     DisasterKind  `json:"kind"`
	Severity Severity      `json:"severity"`
	Center   world.Coord   `json:"center"`
	Radius   int           `json:"radius"`
	Area     []world.Coord `json:"area"`
	Turn     uint64        `json:"turn"`
}

// Affects reports whether the disaster's area contains any of coords.
func (d Disaster) Affects(coords map[world.Coord]bool) bool {
	for _, c := range d.Area {
		if coords[c] {
			return true
		}
	}
	return false
}

// rollDisaster draws a disaster for the current turn. The caller has
// already decided that one occurs.
func rollDisaster(s *WorldState, rng *entropy.Source) Disaster {
	kind := AllDisasterKinds[rng.Intn(len(AllDisasterKinds))]

	tiles := s.Map.Tiles()
	center := tiles[rng.Intn(len(tiles))].Coord
	lo, hi := kind.RadiusRange()
	radius := rng.IntRange(lo, hi)

	sev := AllSeverities[rng.Intn(len(AllSeverities))]

	return Disaster{
		Kind:     kind,
		Severity: sev,
		Center:   center,
		Radius:   radius,
		Area:     s.Map.Within(center, radius),
		Turn:     s.Turn,
	}
}

// ApplyDisaster depletes resources on every affected tile, then appends the
// disaster to the history and logs a disaster event. Area coordinates off
// the grid are ignored; tiles outside the area are untouched.
func ApplyDisaster(s *WorldState, d Disaster) {
	keep := 1 - d.Kind.Loss(d.Severity)
	kinds := d.Kind.AffectedResources()

	for _, c := range d.Area {
		t := s.Map.Get(c)
		if t == nil {
			continue
		}
		t.Resources.Scale(keep, kinds...)
	}

	s.Disasters = append(s.Disasters, d)
	s.AddEvent(Event{
		Type:    EventDisaster,
		Subtype: d.Kind.String(),
		Target:  d.Center.String(),
		Amount:  float64(len(d.Area)),
		Reason:  d.Severity.String(),
	})

	slog.Info("natural disaster",
		"turn", s.Turn,
		"kind", d.Kind.String(),
		"severity", d.Severity.String(),
		"center", d.Center.String(),
		"radius", d.Radius,
		"tiles", len(d.Area),
	)
}
