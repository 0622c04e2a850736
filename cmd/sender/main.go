/*
Sender is the listening half of the writev benchmark.

It accepts one TCP connection at a time and streams fixed-shape groups of
header/payload buffer pairs to it until a send fails, then goes back to
accepting. Each group is sent with one of three strategies:

1. Scatter-gather: the whole group in a single writev call

2. Write sequential: one write call per buffer

3. Write coalesced: the group copied into one staging buffer, then one write

Usage:

	sender <port> <use_scatter_gather> [write_one_by_one]
*/
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/logging"
	"github.com/winlinvip/go-writev/internal/server"
)

func main() {
	// Setup structured logging first
	logging.SetupLogger(os.Stdout)

	// Parse command line arguments before any socket exists
	cfg, code := parseArgs(os.Args, os.Stdout, os.Stderr)
	if cfg == nil {
		os.Exit(code)
	}

	logging.LogConfig(cfg)

	// Set up signal handling for clean shutdown
	setupSignalHandling()

	if err := server.Run(cfg); err != nil {
		logging.LogError(err, "sender")
		os.Exit(1)
	}
}

// parseArgs parses args into a sender configuration. On failure it prints
// usage and returns a nil config with the exit code to use.
func parseArgs(args []string, stdout, stderr io.Writer) (*config.Config, int) {
	program := config.ProgramName(args)

	cfg, err := config.ParseSenderArgs(args)
	if stderrors.Is(err, config.ErrHelp) {
		config.SenderUsage(stdout, program)
		return nil, 0
	}
	if err != nil {
		slog.Error("Configuration error", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		config.SenderUsage(stderr, program)
		return nil, 1
	}
	return cfg, 0
}

// setupSignalHandling sets up handlers for OS signals to ensure clean shutdown
func setupSignalHandling() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		slog.Info("Received shutdown signal", "signal", sig)

		// Let the last log records reach stdout
		time.Sleep(100 * time.Millisecond)

		slog.Info("Sender shutting down")
		os.Exit(0)
	}()
}
