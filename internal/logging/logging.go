package logging

import (
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/errors"
)

// SetupLogger installs a structured text logger writing to w as the default
// logger. Nothing is written to disk.
func SetupLogger(w io.Writer) {
	// Create structured logger without source file/line information
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	}

	// Use text handler for better console readability
	handler := slog.NewTextHandler(w, opts)
	slog.SetDefault(slog.New(handler))

	slog.Info("Logging initialized", "session_id", time.Now().Format("20060102_150405"))
}

// LogConfig logs the current configuration
func LogConfig(cfg *config.Config) {
	if cfg.IsServer {
		slog.Info("Sender configuration",
			"listen_address", cfg.ListenAddress(),
			"strategy", cfg.StrategyName(),
			"group_size", cfg.GroupSize,
			"header_size", cfg.HeaderSize,
			"payload_size", cfg.PayloadSize,
			"group_bytes", cfg.GroupBytes())
		return
	}

	slog.Info("Receiver configuration",
		"server_address", cfg.ServerAddress(),
		"idle_read_threshold", cfg.IdleReadThreshold,
		"read_buffer_size", cfg.ReadBufferSize)
}

// LogError logs an error with appropriate context
func LogError(err error, context string) {
	var (
		cfgErr  *errors.ConfigError
		netErr  *errors.NetworkError
		sendErr *errors.SendError
		recvErr *errors.ReceiveError
	)

	switch {
	case stderrors.As(err, &cfgErr):
		slog.Error("Configuration error",
			"context", context,
			"field", cfgErr.Field,
			"message", cfgErr.Message,
			"error_type", "configuration")
	case stderrors.As(err, &netErr):
		slog.Error("Network error",
			"context", context,
			"operation", netErr.Op,
			"address", netErr.Addr,
			"error", netErr.Err,
			"error_type", "network")
	case stderrors.As(err, &sendErr):
		slog.Error("Send failed",
			"context", context,
			"strategy", sendErr.Strategy,
			"call", sendErr.Call,
			"error", sendErr.Err,
			"error_type", "send")
	case stderrors.As(err, &recvErr):
		slog.Error("Receive ended",
			"context", context,
			"reason", recvErr.Reason,
			"error", recvErr.Err,
			"error_type", "receive")
	default:
		slog.Error("Unhandled error",
			"context", context,
			"error", err,
			"error_type", "unknown")
	}
}

// LogStreamStart logs a connection entering the streaming state
func LogStreamStart(remoteAddr, strategy string) {
	slog.Info("Streaming started",
		"remote_addr", remoteAddr,
		"strategy", strategy,
		"stream_start", time.Now().Format("15:04:05"))
}

// LogStreamEnd logs the end of a stream with its totals
func LogStreamEnd(remoteAddr string, groups, totalBytes, syscalls uint64, duration time.Duration) {
	var avgRate float64
	if secs := duration.Seconds(); secs > 0 {
		avgRate = float64(totalBytes) / (1024 * 1024) / secs
	}

	slog.Info("Streaming ended",
		"remote_addr", remoteAddr,
		"groups_sent", groups,
		"total_bytes_sent", totalBytes,
		"syscalls", syscalls,
		"stream_duration_seconds", int(duration.Seconds()),
		"average_throughput_mb_s", avgRate,
		"stream_end", time.Now().Format("15:04:05"))
}

// LogThroughput logs a periodic throughput sample with the GC count and the
// latest GC pauses
func LogThroughput(label string, mbps float64, totalBytes, numGC int64, pauses []time.Duration) {
	slog.Info("Throughput",
		"side", label,
		"mbps", mbps,
		"total_mb", float64(totalBytes)/(1024*1024),
		"num_gc", numGC,
		"gc_pauses", pauses)
}

// LogReceiveReport logs the receiver's final bandwidth report. rate is either
// a formatted rate or "instantaneous" when the run was shorter than a second,
// in which case mbps is 0.
func LogReceiveReport(totalBytes, seconds int64, rate string, mbps float64, reason error) {
	slog.Info("Receive completed",
		"total_bytes_received", totalBytes,
		"elapsed_seconds", seconds,
		"bandwidth", rate,
		"mbps", mbps,
		"reason", reason,
		"timestamp", time.Now().Format("15:04:05"))
}
