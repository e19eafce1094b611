// Package serve runs a standalone mock server from a YAML config, for
// test suites that can't (or don't want to) embed the mock package
// directly.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/surimi/surimi/mock"
)

type args struct {
	Config  string `arg:"positional" default:"surimi.yaml" help:"path to the YAML config file"`
	Verbose bool   `arg:"-v,--verbose" help:"log at debug level"`
}

// Run starts the mock server described by config and blocks until ctx
// is cancelled.
func Run(ctx context.Context, config *Config, logger *zap.Logger) error {
	connectionType, err := config.ConnectionType()
	if err != nil {
		return err
	}

	server := mock.NewServer().
		Host(config.Host).
		Port(config.Port).
		Mode(connectionType).
		Responses(config.Responses...).
		Logger(logger)

	host, port, err := server.Start(ctx)
	if err != nil {
		return err
	}
	defer server.Close()

	logger.Info("serving mocked responses",
		zap.String("host", host),
		zap.Int("port", port),
		zap.Stringer("mode", connectionType),
		zap.Int("responses", len(config.Responses)))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// Main is the CLI entrypoint. It parses arguments, sets up logging and
// signal handling, and serves until interrupted.
func Main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}()

	var parsed args
	arg.MustParse(&parsed)

	config, err := ReadAndValidateConfig(parsed.Config)
	if err != nil {
		return
	}

	logger, err := newLogger(config, parsed.Verbose)
	if err != nil {
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = Run(ctx, config, logger)
}

// newLogger builds the CLI logger; either the --verbose flag or the
// config's verbose option switches it to debug output.
func newLogger(config *Config, flagVerbose bool) (*zap.Logger, error) {
	if flagVerbose || config.Verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
