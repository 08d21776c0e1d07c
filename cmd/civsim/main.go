// Command civsim runs a deterministic civilization world simulation from a
// YAML config, recording history to SQLite and archiving the final snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civ-world/internal/api"
	"github.com/talgya/civ-world/internal/config"
	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/entropy"
	"github.com/talgya/civ-world/internal/persistence"
	"github.com/talgya/civ-world/internal/social"
	"github.com/talgya/civ-world/internal/steward"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML run config (defaults apply when empty)")
		turns      = flag.Uint64("turns", 0, "override max_turns")
		interval   = flag.Duration("interval", 0, "minimum wall time per turn")
		httpAddr   = flag.String("http", "", "serve the status API on this address")
	)
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if *turns > 0 {
		cfg.MaxTurns = *turns
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if lvl, err := config.ParseLevel(cfg.LogLevel); err == nil {
		level.Set(lvl)
	}

	if err := run(cfg, *interval); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(cfg *config.Config, interval time.Duration) error {
	slog.Info("civ-world simulation starting", "max_turns", cfg.MaxTurns, "grid", fmt.Sprintf("%dx%d", *cfg.World.Width, *cfg.World.Height))

	// ── World ─────────────────────────────────────────────────────────
	rng := entropy.New(cfg.Seed)
	if cfg.Seed == 0 {
		slog.Info("no seed configured, drew one", "seed", rng.Seed())
	}

	civs, err := cfg.BuildCivilizations()
	if err != nil {
		return err
	}
	state, err := engine.InitializeWorld(cfg.GenConfig(), civs, rng)
	if err != nil {
		return fmt.Errorf("initialize world: %w", err)
	}
	for t, n := range state.Map.TerrainCounts() {
		slog.Debug("terrain", "type", t.String(), "count", n)
	}
	for _, id := range social.SortedIDs(state.Civilizations) {
		c := state.Civilizations[id]
		slog.Info("civilization founded",
			"id", c.ID,
			"name", c.Name,
			"capital", c.Capital,
			"population", humanize.Comma(int64(c.Population)),
		)
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(state, rng, cfg.Options())
	st := steward.New()
	sim.Deciders = []engine.Agent{st}

	// ── Database ──────────────────────────────────────────────────────
	if path := cfg.Output.DBPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		db, err := persistence.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SetLatestRun(state.RunID, state.Seed); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		sim.Recorders = append(sim.Recorders, db)
		slog.Info("database opened", "path", path, "run", state.RunID)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.HTTP.Addr != "" {
		srv := api.NewServer(sim, cfg.HTTP.Addr, cfg.HTTP.RPS)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Warn("HTTP shutdown", "error", err)
			}
		}()
	}

	// ── Run ───────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim, cfg.MaxTurns)
	eng.Interval = interval
	eng.OnTurn = func(turn uint64) {
		if turn%engine.TurnsPerYear != 0 {
			return
		}
		snap := sim.Latest()
		power := snap.Power()
		slog.Info("year complete",
			"turn", turn,
			"strongest", power.Strongest,
			"weakest", power.Weakest,
			"ratio", fmt.Sprintf("%.2f", power.Ratio),
			"disasters", len(snap.Disasters),
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		slog.Info("received signal, stopping at end of turn", "signal", sig)
		eng.Stop()
	}()

	started := time.Now()
	if err := eng.Run(context.Background()); err != nil {
		return err
	}

	// ── Archive ───────────────────────────────────────────────────────
	final := sim.Latest()
	if path := cfg.Output.SnapshotPath; path != "" {
		if err := persistence.WriteArchive(path, final); err != nil {
			return fmt.Errorf("archive snapshot: %w", err)
		}
		slog.Info("snapshot archived", "path", path, "turn", final.Turn)
	}

	printSummary(final, sim.Balancer, st, time.Since(started))
	return nil
}

func printSummary(snap *engine.Snapshot, b *engine.Balancer, st *steward.Steward, elapsed time.Duration) {
	civs := append([]social.Civilization(nil), snap.Civilizations...)
	sort.SliceStable(civs, func(i, j int) bool {
		return civs[i].PowerScore() > civs[j].PowerScore()
	})

	fmt.Printf("\nRun %s (seed %d) finished after %s turns in %s.\n",
		snap.RunID, snap.Seed, humanize.Comma(int64(snap.Turn)), elapsed.Round(time.Millisecond))
	for i, c := range civs {
		fmt.Printf("%2d. %-24s score %8.2f  population %s\n",
			i+1, c.Name, c.PowerScore(), humanize.Comma(int64(c.Population)))
	}

	corrections := 0
	if b != nil {
		for _, r := range b.History {
			if r.Applied {
				corrections++
			}
		}
	}
	fmt.Printf("%s disasters, %s balance corrections, %s events.\n",
		humanize.Comma(int64(len(snap.Disasters))),
		humanize.Comma(int64(corrections)),
		humanize.Comma(int64(len(snap.Events))),
	)
	fmt.Printf("Steward: %s.\n", st.Memory.Summary())
	for _, r := range st.Memory.Recent(len(snap.Civilizations)) {
		if r.Turn != snap.Turn {
			continue
		}
		fmt.Printf("    %-24s %-8s %s food per 1,000\n",
			r.Civilization, strings.ToLower(r.Level), humanize.FormatFloat("#,###.##", r.FoodPerThousand))
	}
}
