package config

import (
	"flag"
	"time"
)

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagTeleportDebug = flag.Bool("teleport-debug", false, "Draw teleport traversal boxes")
	flagDesktop       = flag.Bool("desktop", false, "Use the desktop input path instead of VR grips")
	flagDuration      = flag.Duration("duration", 0, "Simulated time to run")
	flagLogFile       = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Diagnostics.Gizmos = true
	}
	if *flagTeleportDebug {
		cfg.Diagnostics.TeleportDebug = true
	}
	if *flagDesktop {
		cfg.Player.VR = false
	}
	if *flagDuration > time.Duration(0) {
		cfg.Simulation.Duration = *flagDuration
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
