// Command rescuesim runs rescue simulator scenarios without a server.
//
//	rescuesim run --scenario classic --turns 200 --snapshot out.snap.zst
//	rescuesim analyze configs/skirmish.json
//	rescuesim validate
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/rescue-simulator/game/config"
	"github.com/wricardo/rescue-simulator/game/engine"
	"github.com/wricardo/rescue-simulator/logging"
)

const version = "1.0.0"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rescuesim:", err)
		os.Exit(1)
	}
}

func newApp(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "rescuesim",
		Usage:     "run, analyze and validate rescue simulator scenarios",
		Version:   version,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing scenario files",
				Sources: cli.EnvVars("RESCUE_CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("RESCUE_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			analyzeCommand(),
			validateCommand(),
		},
	}
}

func newLogger(cmd *cli.Command) zerolog.Logger {
	return logging.NewWithWriter(cmd.Root().ErrWriter, cmd.String("log-level"), true)
}

// loadScenario resolves name as a file path when it has a scenario
// extension or exists on disk, otherwise as a config id in the config
// directory. An empty name picks the directory's default scenario.
func loadScenario(configDir, name string) (*engine.GameConfig, error) {
	if name != "" && isScenarioFile(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if err := config.ValidateDocument(data, format); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cfg, err := engine.ParseGameConfig(data, format)
		if err != nil {
			return nil, err
		}
		if err := engine.ValidateGameConfig(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return cfg, nil
	}

	if _, err := os.Stat(configDir); err != nil {
		if name == "" {
			return engine.DefaultGameConfig(), nil
		}
		return nil, fmt.Errorf("scenario %q: %w", name, err)
	}

	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return true
	}
	return false
}
