// Command chronicle prints a report of a stored run: the run's settings,
// each civilization's power trajectory, recent events and disasters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civ-world/internal/config"
	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/persistence"
)

func main() {
	var (
		dbPath  = flag.String("db", envOrDefault("CIVSIM_DB", "data/civworld.db"), "SQLite history database")
		runID   = flag.String("run", "", "run id (default: the latest run)")
		civID   = flag.String("civ", "", "only report this civilization")
		events  = flag.Int("events", 15, "number of recent events to show")
		archive = flag.String("archive", "", "print the header of a snapshot archive and exit")
		list    = flag.Bool("runs", false, "list stored runs and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if *archive != "" {
		if err := printArchive(os.Stdout, *archive); err != nil {
			slog.Error("read archive failed", "error", err)
			os.Exit(1)
		}
		return
	}

	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	r := &reporter{db: db, out: os.Stdout, events: *events}
	if *list {
		err = r.runs(context.Background())
	} else {
		err = r.report(context.Background(), *runID, *civID)
	}
	if err != nil {
		slog.Error("report failed", "error", err)
		db.Close()
		os.Exit(1)
	}
}

type reporter struct {
	db     *persistence.DB
	out    io.Writer
	events int
}

func (r *reporter) report(ctx context.Context, runID, civID string) error {
	if runID == "" {
		latest, err := r.db.LatestRun()
		if err != nil {
			return fmt.Errorf("no run id given and no latest run recorded: %w", err)
		}
		runID = latest
	}

	run, err := r.db.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Run %s\n", run.RunID)
	fmt.Fprintf(r.out, "  seed %d, %dx%d grid, %s turns (%s years)\n\n",
		run.Seed, run.Width, run.Height,
		humanize.Comma(int64(run.LastTurn)),
		humanize.Ftoa(float64(run.LastTurn)/engine.TurnsPerYear),
	)

	ids, err := r.db.CivilizationIDs(ctx, runID)
	if err != nil {
		return err
	}
	if civID != "" {
		if !contains(ids, civID) {
			msg := fmt.Sprintf("unknown civilization %q", civID)
			if s, ok := config.Suggest(strings.ToLower(civID), ids); ok {
				msg += fmt.Sprintf(" (did you mean %q?)", s)
			}
			return errors.New(msg)
		}
		ids = []string{civID}
	}

	for _, id := range ids {
		if err := r.civilization(ctx, runID, id); err != nil {
			return err
		}
	}

	if err := r.disasters(ctx, runID); err != nil {
		return err
	}
	return r.recentEvents(ctx, runID)
}

// runs lists every stored run, marking the latest one.
func (r *reporter) runs(ctx context.Context) error {
	runs, err := r.db.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(r.out, "No runs recorded.")
		return nil
	}
	latest, _ := r.db.LatestRun()
	for _, run := range runs {
		mark := " "
		if run.RunID == latest {
			mark = "*"
		}
		fmt.Fprintf(r.out, "%s %s  seed %-20d %dx%d  %s turns\n",
			mark, run.RunID, run.Seed, run.Width, run.Height, humanize.Comma(int64(run.LastTurn)))
	}
	return nil
}

func (r *reporter) civilization(ctx context.Context, runID, id string) error {
	rows, err := r.db.CivilizationHistory(ctx, runID, id)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	first, last := rows[0], rows[len(rows)-1]

	fmt.Fprintf(r.out, "%s (%s)\n", last.Name, id)
	fmt.Fprintf(r.out, "  score       %8.2f -> %8.2f  (%s)\n", first.Score, last.Score, change(first.Score, last.Score))
	fmt.Fprintf(r.out, "  military    %8.2f -> %8.2f\n", first.Military, last.Military)
	fmt.Fprintf(r.out, "  economic    %8.2f -> %8.2f\n", first.Economic, last.Economic)
	fmt.Fprintf(r.out, "  technology  %8.2f -> %8.2f\n", first.Technology, last.Technology)
	fmt.Fprintf(r.out, "  population  %s -> %s\n",
		humanize.Comma(int64(first.Population)), humanize.Comma(int64(last.Population)))

	res, err := last.Resources()
	if err != nil {
		return err
	}
	if total := res.Total(); total > 0 {
		fmt.Fprintf(r.out, "  stockpile   %s units\n", humanize.CommafWithDigits(total, 1))
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *reporter) disasters(ctx context.Context, runID string) error {
	ds, err := r.db.Disasters(ctx, runID, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Disasters: %s\n", humanize.Comma(int64(len(ds))))
	for _, d := range ds {
		fmt.Fprintf(r.out, "  turn %-5d %-8s %-10s at %-6s radius %d, %d tiles\n",
			d.Turn, d.Severity, d.Kind, d.Center, d.Radius, len(d.Area))
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *reporter) recentEvents(ctx context.Context, runID string) error {
	counts, err := r.db.EventCounts(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Events: %d balance, %d disaster, %d decision\n",
		sumPrefix(counts, engine.EventBalance),
		sumPrefix(counts, engine.EventDisaster),
		sumPrefix(counts, engine.EventDecision),
	)

	evs, err := r.db.RecentEvents(ctx, runID, r.events)
	if err != nil {
		return err
	}
	for i := len(evs) - 1; i >= 0; i-- {
		e := evs[i]
		fmt.Fprintf(r.out, "  turn %-5d %-8s %-24s %-10s %10.2f  %s\n",
			e.Turn, e.Type, e.Subtype, e.Target, e.Amount, e.Reason)
	}
	return nil
}

func printArchive(w io.Writer, path string) error {
	h, err := persistence.ReadArchiveHeader(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Archive %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	fmt.Fprintf(w, "  version %d, run %s, seed %d, turn %d\n", h.Version, h.RunID, h.Seed, h.Turn)
	return nil
}

// change formats the relative change between two scores.
func change(from, to float64) string {
	if from == 0 {
		return "new"
	}
	pct := (to - from) / from * 100
	return fmt.Sprintf("%+.1f%%", pct)
}

func sumPrefix(counts map[string]int, typ string) int {
	n := 0
	for k, v := range counts {
		if strings.HasPrefix(k, typ+"/") {
			n += v
		}
	}
	return n
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
