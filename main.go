package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/pointfield/config"
	"github.com/pthm-cable/pointfield/game"
	"github.com/pthm-cable/pointfield/renderer"
	"github.com/pthm-cable/pointfield/ui"
)

const controlsLegend = "Move: repel | Space: pause | R: reset pointer | F11: fullscreen"

// runFlags holds the root command's flags.
type runFlags struct {
	configPath     string
	headless       bool
	logStats       bool
	statsWindow    float64
	outputDir      string
	seed           int64
	maxTicks       int
	stepsPerUpdate int
}

func main() {
	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags runFlags

	root := &cobra.Command{
		Use:           "pointfield",
		Short:         "Pointer-reactive 3D particle field",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize config before anything else
			if err := config.Init(flags.configPath); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to config.yaml (empty = use defaults)")

	f := root.Flags()
	f.BoolVar(&flags.headless, "headless", false, "Run without graphics, driving the pointer synthetically")
	f.BoolVar(&flags.logStats, "log-stats", false, "Output stats via slog")
	f.Float64Var(&flags.statsWindow, "stats-window", 0, "Stats window size in seconds (0 = use config)")
	f.StringVar(&flags.outputDir, "output-dir", "", "Output directory for CSV logs and the resolved config")
	f.Int64Var(&flags.seed, "seed", 0, "RNG seed (0 = time-based)")
	f.IntVar(&flags.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	f.IntVar(&flags.stepsPerUpdate, "steps-per-update", 1, "Simulation ticks per update call")

	root.AddCommand(newConfigCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Cfg().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func run(ctx context.Context, flags runFlags) error {
	cfg := config.Cfg()

	rngSeed := flags.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:         cfg,
		Seed:           rngSeed,
		LogStats:       flags.logStats,
		StatsWindowSec: flags.statsWindow,
		OutputDir:      flags.outputDir,
		Headless:       flags.headless,
		StepsPerUpdate: flags.stepsPerUpdate,
	}

	if flags.headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			return err
		}
		defer g.Unload()

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", flags.maxTicks,
			"steps_per_update", flags.stepsPerUpdate,
		)
		return game.RunHeadless(ctx, g, game.DefaultHeadlessOptions(flags.maxTicks))
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Point Field")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	points, err := renderer.NewPointRenderer(g.Field(), float32(cfg.Field.Size), float32(cfg.Field.Opacity))
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer points.Unload()

	hud := ui.NewHUD()
	perfPanel := ui.NewPerfPanel(0, 10)

	for !rl.WindowShouldClose() {
		renderer.PollInput(g)
		g.UpdateUntil(int32(flags.maxTicks))
		g.RecordFrame()

		points.SyncCamera(g.Camera())

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		points.Draw(g.Field(), g.Scene().CloudRotation())
		_, hit := g.PointerPoint()
		hud.Draw(ui.HUDData{
			Title:      "Point Field",
			Particles:  g.Field().Len(),
			Influenced: g.Influenced(),
			Repelled:   g.LastStep().Repelled,
			PointerHit: hit,
			Tick:       g.Tick(),
			FPS:        rl.GetFPS(),
			Paused:     g.Paused(),
		}, g)
		hud.DrawControls(int32(rl.GetScreenHeight()), controlsLegend)
		perfPanel.SetPosition(int32(rl.GetScreenWidth())-220, 10)
		perfPanel.Draw(g.PerfStats())
		rl.EndDrawing()

		if flags.maxTicks > 0 && int(g.Tick()) >= flags.maxTicks {
			break
		}
	}
	return nil
}
