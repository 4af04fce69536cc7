package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phuocduong/prime-engine/internal/config"
	"github.com/phuocduong/prime-engine/internal/core/ecs"
	"github.com/phuocduong/prime-engine/internal/core/event"
	coresys "github.com/phuocduong/prime-engine/internal/core/system"
	"github.com/phuocduong/prime-engine/internal/data"
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/persist"
	"github.com/phuocduong/prime-engine/internal/render"
	"github.com/phuocduong/prime-engine/internal/scripting"
	"github.com/phuocduong/prime-engine/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/width"
)

// defaultLogFile receives logs while the terminal renderer owns the screen.
const defaultLogFile = "prime-fx.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(systems int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            prime-fx  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     monitored particle & label engine     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1meffect systems:\033[0m %d\n\n", systems)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Engine ────────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Render.Enabled && cfg.Logging.File == "" {
		cfg.Logging.File = defaultLogFile
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(len(cfg.Systems))

	// 3. Presets and effect systems
	printSection("data")
	presets, err := data.LoadPresetTable(cfg.Data.Presets)
	if err != nil {
		return fmt.Errorf("presets: %w", err)
	}
	printStat("presets", presets.Count())

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	set, err := system.BuildEffects(cfg.Systems, presets, seed, log)
	if err != nil {
		return fmt.Errorf("effect systems: %w", err)
	}
	for _, sys := range set.All() {
		printStat(sys.Name()+" ("+sys.Kind().String()+")", sys.Capacity())
	}

	// 4. Scripts
	bus := event.NewBus()
	lua, err := scripting.NewEngine(cfg.Data.Scripts, bus, set, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer lua.Close()
	if lua.HasTickHook() {
		printOK("lua on_tick hook loaded")
	}

	// 5. Emitters
	world := ecs.NewWorld()
	emitters := system.NewEmitterSystem(world, set, log)
	for _, ec := range cfg.Emitters {
		if _, err := emitters.Add(ec); err != nil {
			return fmt.Errorf("emitter: %w", err)
		}
	}
	printStat("emitters", emitters.Len())
	fmt.Println()

	// 6. Stats sink: PostgreSQL when configured, log lines otherwise
	printSection("stats")
	var writer system.StatsWriter = logStats{log: log}
	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		writer = persist.NewStatsRepo(db)
	} else {
		printOK("database disabled, snapshots go to the log")
	}
	runID := time.Now().UTC().Format("20060102T150405")
	stats := system.NewStatsSystem(set, writer, runID, cfg.Stats.IntervalTicks, log)
	fmt.Println()

	// 7. Runner
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus, set, log))
	runner.Register(system.NewScriptSystem(lua, log))
	runner.Register(emitters)
	runner.Register(system.NewSimulateSystem(set, log))
	runner.Register(stats)
	runner.Register(system.NewCleanupSystem(world, log))

	printSection("ready")
	printReady(fmt.Sprintf("tick loop (tick: %s, run: %s)", cfg.Engine.TickRate, runID))
	if cfg.Logging.File != "" {
		printReady("logging to " + cfg.Logging.File)
	}
	fmt.Println()

	// 8. Terminal
	quit := make(chan struct{})
	if cfg.Render.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer screen.Fini()
		renderer := render.NewRenderer(screen, render.Options{
			Glyphs: cfg.Render.Glyphs,
			Scale:  cfg.Render.Scale,
			Status: cfg.Render.Status,
		}, log)
		runner.Register(system.NewPresentSystem(set, renderer))
		go render.WatchQuit(screen, quit)
	}

	// 9. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	log.Info("engine started", zap.String("run", runID), zap.Int64("seed", seed), zap.Duration("tick_rate", cfg.Engine.TickRate))

	for {
		select {
		case <-ticker.C:
			if err := runner.Tick(cfg.Engine.TickRate); err != nil {
				log.Error("engine halted", zap.Error(err), zap.Uint64("tick", runner.Ticks()))
				set.LogSummary(log)
				return err
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return shutdown(stats, set, log)
		case <-quit:
			log.Info("quit key pressed")
			return shutdown(stats, set, log)
		}
	}
}

func shutdown(stats *system.StatsSystem, set *fx.Set, log *zap.Logger) error {
	stats.Flush()
	set.LogSummary(log)
	log.Info("engine stopped")
	return nil
}

// logStats is the StatsWriter used without a database.
type logStats struct {
	log *zap.Logger
}

func (l logStats) WriteSnapshots(_ context.Context, rows []persist.StatsRow) error {
	for _, r := range rows {
		l.log.Info("stats",
			zap.String("system", r.System),
			zap.Uint64("tick", r.Tick),
			zap.Int("index_count", r.IndexCount),
			zap.Int("sync_count", r.SyncCount),
			zap.Uint64("spawned", r.Spawned),
			zap.Uint64("dropped", r.Dropped),
			zap.Uint64("expired", r.Expired),
		)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		if cfg.Format != "json" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder // no colour codes in files
		}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
