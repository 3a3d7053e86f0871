package app

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/hclconfig"
	"github.com/vk/palila/internal/yamlconfig"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	in     io.Reader
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
}

// Streams are the console endpoints of an App. Logs go to Log, the session
// transcript and plans to Out.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Log io.Writer
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger. A nil loader selects the configuration format by
// file extension.
func NewApp(streams Streams, cfg *Config, loader config.Loader) (*App, error) {
	if streams.Log == nil {
		streams.Log = streams.Out
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, streams.Log)
	if err != nil {
		return nil, err
	}
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = DefaultLoader()
	}
	return &App{
		in:     streams.In,
		outW:   streams.Out,
		logger: logger,
		config: cfg,
		loader: loader,
	}, nil
}

// DefaultLoader reads HCL and YAML experiment files.
func DefaultLoader() *config.Selector {
	hcl := hclconfig.NewLoader()
	yml := yamlconfig.NewLoader()
	return config.NewSelector(map[string]config.Loader{
		".hcl":  hcl,
		".yaml": yml,
		".yml":  yml,
	})
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// random returns the seeded source, or nil to let callers seed from entropy.
func (a *App) random() *rand.Rand {
	if !a.config.HasSeed {
		return nil
	}
	return rand.New(rand.NewPCG(a.config.Seed, a.config.Seed))
}
