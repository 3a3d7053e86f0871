package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/merge"
)

// Run executes the main application logic based on the configured mode.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	switch a.config.Mode {
	case ModeMerge:
		return a.merge(ctx)
	case ModePlan, ModeRun:
	default:
		return fmt.Errorf("unknown mode %q", a.config.Mode)
	}

	exp, err := a.Compile(ctx)
	if err != nil {
		return err
	}
	if a.config.Mode == ModePlan {
		return printPlan(a.outW, exp)
	}
	err = a.runSession(ctx, exp)
	a.logger.Debug("App.Run method finished.")
	return err
}

// Compile loads the experiment configuration, validates it and compiles the
// screen sequence.
func (a *App) Compile(ctx context.Context) (*compiler.Experiment, error) {
	ctx = a.context(ctx)
	dir, err := experimentDir(a.config.ExperimentPath)
	if err != nil {
		return nil, err
	}

	root, err := a.loader.Load(ctx, a.config.ExperimentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.logger.Debug("Configuration loaded.", "dir", dir)

	def, err := experiment.Build(ctx, root, experiment.Options{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("invalid experiment configuration:\n%w", err)
	}
	if a.config.Override && !def.Override {
		a.logger.Warn("Override enabled from the command line, screens can be left without completing them.")
		def.Override = true
	}

	exp, err := compiler.Compile(ctx, def, compiler.Options{Rand: a.random()})
	if err != nil {
		return nil, fmt.Errorf("failed to compile experiment:\n%w", err)
	}
	a.logger.Info("Experiment compiled.", "screens", len(exp.Screens), "columns", len(exp.QuestionIDs))
	return exp, nil
}

func (a *App) merge(ctx context.Context) error {
	dir, err := experimentDir(a.config.ExperimentPath)
	if err != nil {
		return err
	}
	res, err := merge.Run(ctx, merge.Options{
		Dir:    dir,
		Format: answerstore.Format(a.config.OutputFormat),
		Rand:   a.random(),
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	fmt.Fprintf(a.outW, "Merged %d sessions into %s\n", res.Sessions, res.Path)
	return nil
}

// experimentDir returns path when it is a directory and its parent otherwise.
func experimentDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if info.IsDir() {
		return path, nil
	}
	return filepath.Dir(path), nil
}
