// Package main is the entry point for the headless VR locomotion simulator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-vr/internal/config"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/game"
	"github.com/Faultbox/midgard-vr/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON, Console: true}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard VR Simulator ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("simulation error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("simulation finished normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := input.NewScripted(cfg.Player.VR)
	script := game.DemoScript(src, logger.Named("script"))

	g, err := game.New(cfg, src, logger.Log)
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}
	defer g.Close()

	game.LoadDemo(g)

	if err := g.Run(ctx, cfg.Simulation.Duration, script.Step); err != nil {
		return err
	}

	out, err := yaml.Marshal(g.Report())
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
