package steward

import (
	"fmt"
	"strings"

	"github.com/talgya/civ-world/internal/social"
)

// DefaultMemorySize is how many cycle records a steward keeps.
const DefaultMemorySize = 256

// CycleRecord captures what happened to one civilization in one cycle.
type CycleRecord struct {
	Turn            uint64                `json:"turn"`
	Civilization    social.CivilizationID `json:"civilization"`
	Level           string                `json:"level"`
	FoodPerThousand float64               `json:"food_per_thousand"`
	Extracted       float64               `json:"extracted"`
	PopulationDelta float64               `json:"population_delta"`
}

// CycleMemory is a bounded log of recent cycle records, oldest first.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`

	limit int
}

// NewCycleMemory creates a memory holding at most limit records.
func NewCycleMemory(limit int) *CycleMemory {
	return &CycleMemory{limit: max(limit, 1)}
}

// Record adds a cycle record, trimming to the limit.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > m.limit {
		m.Records = m.Records[len(m.Records)-m.limit:]
	}
}

// Recent returns up to n of the newest records, oldest first.
func (m *CycleMemory) Recent(n int) []CycleRecord {
	if n >= len(m.Records) {
		return m.Records
	}
	return m.Records[len(m.Records)-n:]
}

// LevelCounts tallies the remembered records by health level.
func (m *CycleMemory) LevelCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range m.Records {
		counts[r.Level]++
	}
	return counts
}

// Summary returns a one-line digest of the remembered cycles.
func (m *CycleMemory) Summary() string {
	if len(m.Records) == 0 {
		return "no cycles"
	}
	counts := m.LevelCounts()
	var parts []string
	for _, level := range []string{LevelCritical, LevelStricken, LevelHungry, LevelHealthy} {
		if counts[level] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(level), counts[level]))
		}
	}
	return fmt.Sprintf("%d cycles (%s)", len(m.Records), strings.Join(parts, ", "))
}
