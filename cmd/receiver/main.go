/*
Receiver is the connecting half of the writev benchmark.

It connects to a sender on the loopback address, drains every byte until the
connection closes or stays idle for too many reads in a row, and reports the
average bandwidth.

Usage:

	receiver <port>
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

	"github.com/winlinvip/go-writev/internal/client"
	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/logging"
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

	if err := client.Run(cfg); err != nil {
		logging.LogError(err, "receiver")
		os.Exit(1)
	}
}

// parseArgs parses args into a receiver configuration. On failure it prints
// usage and returns a nil config with the exit code to use.
func parseArgs(args []string, stdout, stderr io.Writer) (*config.Config, int) {
	program := config.ProgramName(args)

	cfg, err := config.ParseReceiverArgs(args)
	if stderrors.Is(err, config.ErrHelp) {
		config.ReceiverUsage(stdout, program)
		return nil, 0
	}
	if err != nil {
		slog.Error("Configuration error", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		config.ReceiverUsage(stderr, program)
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

		slog.Info("Receiver shutting down")
		os.Exit(0)
	}()
}
