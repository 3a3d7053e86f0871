package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/palila/internal/app"
)

// Environment variables that supply flag defaults.
const (
	EnvLogLevel     = "PALILA_LOG_LEVEL"
	EnvLogFormat    = "PALILA_LOG_FORMAT"
	EnvMonitorURL   = "PALILA_MONITOR_URL"
	EnvOutputFormat = "PALILA_OUTPUT_FORMAT"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Env looks up environment variables.
type Env func(key string) (string, bool)

// LoadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("Environment defaults loaded.", "file", path)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// env supplies flag defaults; nil means os.LookupEnv.
func Parse(args []string, output io.Writer, env Env) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	if env == nil {
		env = os.LookupEnv
	}

	mode := app.ModeRun
	if len(args) > 0 && args[0] == string(app.ModeMerge) {
		mode = app.ModeMerge
		args = args[1:]
	}

	flagSet := flag.NewFlagSet("palila", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Palila - listening experiment sessions.

Usage:
  palila [options] [EXPERIMENT_PATH]
  palila merge [options] EXPERIMENT_DIR

Arguments:
  EXPERIMENT_PATH
    Path to an experiment file (.hcl, .yaml, .yml) or a directory holding one.
  EXPERIMENT_DIR
    Experiment directory whose responses folder is merged.

Options:
`)
		flagSet.PrintDefaults()
	}

	experimentFlag := flagSet.String("experiment", "", "Path to the experiment file or directory.")
	eFlag := flagSet.String("e", "", "Path to the experiment file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", envOr(env, EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envOr(env, EnvLogLevel, "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	formatFlag := flagSet.String("format", envOr(env, EnvOutputFormat, "csv"), "Answer table format. Options: 'csv' or 'xlsx'.")
	seedFlag := flagSet.String("seed", "", "Seed for the shuffles, for reproducible orders.")
	var monitorURL, monitorNamespace *string
	var insecureFlag, overrideFlag, planFlag *bool
	if mode == app.ModeRun {
		monitorURL = flagSet.String("monitor-url", envOr(env, EnvMonitorURL, ""), "socket.io endpoint receiving progress events. Empty is disabled.")
		monitorNamespace = flagSet.String("monitor-namespace", "/", "socket.io namespace of the monitor.")
		insecureFlag = flagSet.Bool("monitor-insecure", false, "Skip TLS certificate verification for the monitor.")
		overrideFlag = flagSet.Bool("override", false, "Allow leaving every screen without completing it.")
		planFlag = flagSet.Bool("plan", false, "Print the compiled screens and exit.")
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *experimentFlag != "" {
		path = *experimentFlag
	} else if *eFlag != "" {
		path = *eFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Experiment path determined.", "path", path)

	if path == "" {
		slog.Debug("No experiment path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg := app.Config{
		Mode:           mode,
		ExperimentPath: path,
		LogFormat:      strings.ToLower(*logFormatFlag),
		LogLevel:       strings.ToLower(*logLevelFlag),
		OutputFormat:   strings.ToLower(*formatFlag),
	}
	if *seedFlag != "" {
		seed, err := strconv.ParseUint(*seedFlag, 10, 64)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid seed %q: must be a non-negative integer", *seedFlag)}
		}
		cfg.Seed, cfg.HasSeed = seed, true
	}
	if mode == app.ModeRun {
		cfg.MonitorURL = *monitorURL
		cfg.MonitorNamespace = *monitorNamespace
		cfg.MonitorInsecure = *insecureFlag
		cfg.Override = *overrideFlag
		if *planFlag {
			cfg.Mode = app.ModePlan
		}
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func envOr(env Env, key, fallback string) string {
	if v, ok := env(key); ok && v != "" {
		return v
	}
	return fallback
}
