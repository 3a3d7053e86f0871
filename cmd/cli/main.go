package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/palila/internal/app"
	"github.com/vk/palila/internal/cli"
)

// main is the entrypoint for the palila application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		stop()
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, in io.Reader, outW, logW io.Writer, args []string) (err error) {
	// A panic is a bug; report it as an error instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	if err := cli.LoadDotEnv(".env"); err != nil {
		return err
	}
	appConfig, shouldExit, err := cli.Parse(args, outW, nil)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	palila, err := app.NewApp(app.Streams{In: in, Out: outW, Log: logW}, appConfig, nil)
	if err != nil {
		return err
	}
	return palila.Run(ctx)
}
