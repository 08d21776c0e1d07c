// Package config loads the YAML run configuration, fills in defaults,
// applies environment overrides and validates the result.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/world"
)

// Config is one simulation run.
type Config struct {
	Seed     int64  `yaml:"seed"` // 0 draws a seed from crypto/rand
	MaxTurns uint64 `yaml:"max_turns"`
	LogLevel string `yaml:"log_level"`

	World               WorldConfig `yaml:"world"`
	DisasterProbability *float64    `yaml:"disaster_probability"`
	Balance             Balance     `yaml:"balance"`

	Civilizations []CivilizationConfig `yaml:"civilizations"`

	Output Output `yaml:"output"`
	HTTP   HTTP   `yaml:"http"`
}

// WorldConfig sizes and shapes the generated grid. An explicit zero size is
// kept so validation rejects it.
type WorldConfig struct {
	Width                *int   `yaml:"width"`
	Height               *int   `yaml:"height"`
	ResourceDistribution string `yaml:"resource_distribution"`
	TerrainMode          string `yaml:"terrain_mode"`
}

// Balance tunes the power balancer. Pointers distinguish "unset" from zero.
type Balance struct {
	Enabled            *bool    `yaml:"enabled"`
	Threshold          *float64 `yaml:"threshold"`
	Intensity          *float64 `yaml:"intensity"`
	BreakthroughChance *float64 `yaml:"breakthrough_chance"`
}

// CivilizationConfig is one starting civilization. Resource names are
// matched case-insensitively against the known kinds.
type CivilizationConfig struct {
	ID              string             `yaml:"id"`
	Name            string             `yaml:"name"`
	MilitaryPower   float64            `yaml:"military_power"`
	EconomicPower   float64            `yaml:"economic_power"`
	TechnologyLevel float64            `yaml:"technology_level"`
	Population      float64            `yaml:"population"`
	Resources       map[string]float64 `yaml:"resources"`
	Capital         string             `yaml:"capital"` // "x,y"; empty places one automatically
}

// Output locates the run's artifacts. Empty paths disable them.
type Output struct {
	DBPath       string `yaml:"db_path"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// HTTP configures the read-only status view. Empty Addr disables it.
type HTTP struct {
	Addr string  `yaml:"addr"`
	RPS  float64 `yaml:"rps"`
}

// Defaults.
const (
	DefaultMaxTurns = 100
	DefaultWidth    = 20
	DefaultHeight   = 20
	DefaultLogLevel = "info"
	DefaultRPS      = 20.0
)

// Load reads a YAML config file, applies environment overrides and
// defaults, and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML, applies environment overrides and defaults, and
// validates the result.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a validated config with no civilizations.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CIVSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CIVSIM_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("CIVSIM_MAX_TURNS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CIVSIM_MAX_TURNS: %w", err)
		}
		c.MaxTurns = n
	}
	if v := os.Getenv("CIVSIM_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	return nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	gen := world.DefaultGenConfig()
	if c.World.Width == nil {
		w := DefaultWidth
		c.World.Width = &w
	}
	if c.World.Height == nil {
		h := DefaultHeight
		c.World.Height = &h
	}
	if c.World.ResourceDistribution == "" {
		c.World.ResourceDistribution = gen.ResourceDistribution
	}
	if c.World.TerrainMode == "" {
		c.World.TerrainMode = gen.TerrainMode
	}

	opts := engine.DefaultOptions()
	if c.DisasterProbability == nil {
		c.DisasterProbability = &opts.DisasterProbability
	}
	if c.Balance.Enabled == nil {
		c.Balance.Enabled = &opts.BalanceEnabled
	}
	if c.Balance.Threshold == nil {
		c.Balance.Threshold = &opts.BalanceThreshold
	}
	if c.Balance.Intensity == nil {
		c.Balance.Intensity = &opts.BalanceIntensity
	}
	if c.Balance.BreakthroughChance == nil {
		c.Balance.BreakthroughChance = &opts.BreakthroughChance
	}

	if c.HTTP.RPS <= 0 {
		c.HTTP.RPS = DefaultRPS
	}
}

// Validate rejects configs that cannot run. Grid and civilization problems
// wrap world.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.GenConfig().Validate(); err != nil {
		return err
	}
	switch c.World.ResourceDistribution {
	case world.DistributionRandom, world.DistributionFixed:
	default:
		return fmt.Errorf("%w: unknown resource distribution %q", world.ErrInvalidConfig, c.World.ResourceDistribution)
	}

	if err := unitInterval("disaster_probability", *c.DisasterProbability); err != nil {
		return err
	}
	if *c.Balance.Threshold <= 0 {
		return fmt.Errorf("%w: balance.threshold must be positive, got %g", world.ErrInvalidConfig, *c.Balance.Threshold)
	}
	if err := unitInterval("balance.intensity", *c.Balance.Intensity); err != nil {
		return err
	}
	if err := unitInterval("balance.breakthrough_chance", *c.Balance.BreakthroughChance); err != nil {
		return err
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	_, err := c.BuildCivilizations()
	return err
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be within [0, 1], got %g", world.ErrInvalidConfig, name, v)
	}
	return nil
}

// GenConfig converts the world section to generation parameters.
func (c *Config) GenConfig() world.GenConfig {
	gen := world.DefaultGenConfig()
	gen.Width = *c.World.Width
	gen.Height = *c.World.Height
	gen.ResourceDistribution = c.World.ResourceDistribution
	gen.TerrainMode = c.World.TerrainMode
	return gen
}

// Options converts the balance and disaster settings to engine options.
func (c *Config) Options() engine.Options {
	return engine.Options{
		DisasterProbability: *c.DisasterProbability,
		BalanceEnabled:      *c.Balance.Enabled,
		BalanceThreshold:    *c.Balance.Threshold,
		BalanceIntensity:    *c.Balance.Intensity,
		BreakthroughChance:  *c.Balance.BreakthroughChance,
	}
}

// BuildCivilizations converts the civilization list to power records.
// Duplicate or missing ids, unknown resource names, negative values and
// malformed capitals are rejected.
func (c *Config) BuildCivilizations() ([]*social.Civilization, error) {
	seen := make(map[string]bool, len(c.Civilizations))
	out := make([]*social.Civilization, 0, len(c.Civilizations))

	for i, cc := range c.Civilizations {
		if cc.ID == "" {
			return nil, fmt.Errorf("%w: civilizations[%d] has no id", world.ErrInvalidConfig, i)
		}
		if seen[cc.ID] {
			return nil, fmt.Errorf("%w: duplicate civilization id %q", world.ErrInvalidConfig, cc.ID)
		}
		seen[cc.ID] = true

		if cc.MilitaryPower < 0 || cc.EconomicPower < 0 || cc.TechnologyLevel < 0 || cc.Population < 0 {
			return nil, fmt.Errorf("%w: civilization %q has a negative power value", world.ErrInvalidConfig, cc.ID)
		}

		res, err := parseResources(cc.ID, cc.Resources)
		if err != nil {
			return nil, err
		}

		civ := &social.Civilization{
			ID:              cc.ID,
			Name:            cc.Name,
			MilitaryPower:   cc.MilitaryPower,
			EconomicPower:   cc.EconomicPower,
			TechnologyLevel: cc.TechnologyLevel,
			Population:      cc.Population,
			Resources:       res,
		}
		if civ.Name == "" {
			civ.Name = cc.ID
		}
		if cc.Capital != "" {
			capital, err := world.ParseCoord(cc.Capital)
			if err != nil {
				return nil, fmt.Errorf("%w: civilization %q capital: %v", world.ErrInvalidConfig, cc.ID, err)
			}
			civ.Capital = &capital
		}
		out = append(out, civ)
	}
	return out, nil
}

func parseResources(id string, in map[string]float64) (world.Resources, error) {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make(world.Resources, len(in))
	for _, name := range names {
		kind, ok := world.ParseResourceKind(name)
		if !ok {
			hint := ""
			if s, ok := Suggest(strings.ToLower(name), world.ResourceNames()); ok {
				hint = fmt.Sprintf(" (did you mean %q?)", s)
			}
			return nil, fmt.Errorf("%w: civilization %q: unknown resource %q%s", world.ErrInvalidConfig, id, name, hint)
		}
		v := in[name]
		if v < 0 {
			return nil, fmt.Errorf("%w: civilization %q: negative %s", world.ErrInvalidConfig, id, kind)
		}
		res[kind] += v
	}
	return res, nil
}

// ParseLevel maps a log_level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", world.ErrInvalidConfig, name)
}
