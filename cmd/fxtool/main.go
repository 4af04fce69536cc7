// fxtool inspects effect data and recorded stats.
//
// Usage:
//
//	go run ./cmd/fxtool <command> [flags]
//
// Commands: presets, migrate, stats
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/phuocduong/prime-engine/internal/config"
	"github.com/phuocduong/prime-engine/internal/data"
	"github.com/phuocduong/prime-engine/internal/persist"
	"go.uber.org/zap"
)

func printUsage() {
	fmt.Println("Usage: fxtool <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  presets   Print the effective preset table as YAML")
	fmt.Println("  migrate   Apply stats migrations to [database] dsn")
	fmt.Println("  stats     Show recent snapshots: -run <id> -system <name> [-limit n]")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fs.String("config", config.Path(), "engine config file")
	runID := fs.String("run", "", "run id (stats)")
	sysName := fs.String("system", "", "effect system name (stats)")
	limit := fs.Int("limit", 20, "rows to show (stats)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	commands := map[string]func(*config.Config) error{
		"presets": dumpPresets,
		"migrate": migrate,
		"stats": func(cfg *config.Config) error {
			return showStats(cfg, *runID, *sysName, *limit)
		},
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err := fn(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func dumpPresets(cfg *config.Config) error {
	table, err := data.LoadPresetTable(cfg.Data.Presets)
	if err != nil {
		return err
	}
	raw, err := data.MarshalPresetTable(table)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(raw)
	return err
}

func openDB(ctx context.Context, cfg *config.Config) (*persist.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("[database] dsn is empty")
	}
	return persist.NewDB(ctx, cfg.Database, zap.NewNop())
}

func migrate(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return err
	}
	fmt.Println("Done!")
	return nil
}

func showStats(cfg *config.Config, runID, system string, limit int) error {
	if runID == "" || system == "" {
		return fmt.Errorf("stats needs -run and -system")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := persist.NewStatsRepo(db).Recent(ctx, runID, system, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "tick\tindex\tsync\tspawned\tdropped\texpired\tcancelled\tclears\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			r.Tick, r.IndexCount, r.SyncCount, r.Spawned, r.Dropped, r.Expired, r.Cancelled, r.Clears)
	}
	return w.Flush()
}
