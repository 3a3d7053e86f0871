package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode selects what Run does.
type Mode string

const (
	// ModeRun compiles the experiment and drives one session.
	ModeRun Mode = "run"
	// ModePlan compiles the experiment and prints the result.
	ModePlan Mode = "plan"
	// ModeMerge combines the response tables of an experiment.
	ModeMerge Mode = "merge"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode Mode `validate:"oneof=run plan merge"`
	// ExperimentPath is an experiment file or a directory holding one.
	ExperimentPath string `validate:"required"`

	LogFormat    string `validate:"oneof=text json"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	OutputFormat string `validate:"oneof=csv xlsx"`

	MonitorURL       string `validate:"omitempty,url"`
	MonitorNamespace string
	MonitorInsecure  bool

	// Seed makes the shuffles reproducible when HasSeed is set.
	Seed    uint64
	HasSeed bool
	// Override lets every screen be left without completing it.
	Override bool
}

var validate = validator.New()

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRun
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "csv"
	}
	if cfg.MonitorNamespace == "" {
		cfg.MonitorNamespace = "/"
	}

	if err := validate.Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required configuration field and cannot be empty", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
	}
}
