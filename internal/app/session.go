package app

import (
	"context"
	"fmt"

	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/monitor"
	"github.com/vk/palila/internal/navigation"
)

// runSession drives one session of exp from the console.
func (a *App) runSession(ctx context.Context, exp *compiler.Experiment) error {
	ctx = ctxlog.With(ctx, "experiment", a.config.ExperimentPath)

	store, err := answerstore.New(exp.Definition.Dir, exp.QuestionIDs, answerstore.Options{
		Format: answerstore.Format(a.config.OutputFormat),
	})
	if err != nil {
		return fmt.Errorf("failed to create answer store: %w", err)
	}

	opts := navigation.Options{}
	if a.config.MonitorURL != "" {
		rep, err := monitor.Connect(ctx, monitor.Config{
			URL:                a.config.MonitorURL,
			Namespace:          a.config.MonitorNamespace,
			InsecureSkipVerify: a.config.MonitorInsecure,
		})
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Monitor unavailable, continuing without it.", "error", err)
		} else {
			defer rep.Close()
			opts.Observer = rep
		}
	}

	ctrl := navigation.New(exp, store, opts)
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return newConsole(a.in, a.outW, exp).drive(ctx, ctrl)
}
