package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/config"
	"github.com/pthm-cable/mpm/game"
	"github.com/pthm-cable/mpm/renderer"
	"github.com/pthm-cable/mpm/termview"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	term := flag.Bool("term", false, "Draw in the terminal instead of a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	perfTable := flag.Bool("perf-table", false, "Print a phase timing table every stats window")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	serve := flag.String("serve", "", "Stream frames over websocket on this address (overrides config)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	workers := flag.Int("workers", -1, "Solver worker count (-1 = use config, 0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *workers >= 0 {
		p := cfg.Params()
		p.Workers = *workers
		cfg.ApplyParams(p)
	}

	streamAddr := cfg.Stream.Addr
	if *serve != "" {
		streamAddr = *serve
	}

	opts := game.Options{
		LogStats:   *logStats,
		PerfTable:  *perfTable,
		OutputDir:  *outputDir,
		StreamAddr: streamAddr,
	}

	switch {
	case *headless:
		runHeadless(opts, *maxFrames)
	case *term:
		runTerminal(opts, cfg, *maxFrames)
	default:
		runWindow(opts, cfg, *maxFrames)
	}
}

// runHeadless steps the simulation as fast as possible, without graphics.
func runHeadless(opts game.Options, maxFrames int) {
	g := mustGame(opts)
	defer g.Unload()

	slog.Info("starting headless simulation",
		"max_frames", maxFrames,
		"particles", len(g.Particles()),
	)

	for {
		g.UpdateHeadless()

		if g.Halted() {
			slog.Error("simulation halted", "frame", g.Frame(), "rollbacks", g.Rollbacks())
			g.Unload()
			os.Exit(1)
		}
		if maxFrames > 0 && int(g.Frame()) >= maxFrames {
			slog.Info("max frames reached", "frame", g.Frame())
			return
		}
	}
}

// runTerminal draws the simulation with tcell.
func runTerminal(opts game.Options, cfg *config.Config, maxFrames int) {
	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("failed to create terminal screen", "error", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		slog.Error("failed to initialize terminal screen", "error", err)
		os.Exit(1)
	}
	defer screen.Fini()

	// JSON logs would corrupt the terminal view.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	g := mustGame(opts)
	defer g.Unload()

	termview.Run(screen, g, cfg.Simulation.GridRes, cfg.Terminal.FPS, maxFrames)
}

// runWindow opens a raylib window with the control panel.
func runWindow(opts game.Options, cfg *config.Config, maxFrames int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "MPM Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := mustGame(opts)
	defer g.Unload()

	w := renderer.NewWindow(g)
	defer w.Unload()

	for !rl.WindowShouldClose() {
		w.Update()
		w.Draw()

		if maxFrames > 0 && int(g.Frame()) >= maxFrames {
			break
		}
	}
}

func mustGame(opts game.Options) *game.Game {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	return g
}
