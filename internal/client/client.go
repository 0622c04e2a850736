package client

import (
	"io"
	"log/slog"
	"time"

	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/errors"
	"github.com/winlinvip/go-writev/internal/logging"
	"github.com/winlinvip/go-writev/internal/network"
	"github.com/winlinvip/go-writev/internal/progress"
)

// Receiver drains a byte stream and measures how fast it arrived.
type Receiver struct {
	idleThreshold int
	bufferSize    int
	traceInterval time.Duration
	now           func() time.Time
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithClock replaces the wall clock used for elapsed time and traces.
func WithClock(now func() time.Time) Option {
	return func(r *Receiver) {
		r.now = now
	}
}

// NewReceiver creates a receiver using the idle threshold, read buffer size
// and trace interval from cfg.
func NewReceiver(cfg *config.Config, opts ...Option) *Receiver {
	r := &Receiver{
		idleThreshold: cfg.IdleReadThreshold,
		bufferSize:    cfg.ReadBufferSize,
		traceInterval: cfg.TraceInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run connects to the sender, drains the connection and logs the bandwidth
// report. Only a dial failure is returned; the end of the stream is the
// normal way for the receiver to finish.
func Run(cfg *config.Config) error {
	addr := cfg.ServerAddress()
	slog.Info("Starting receiver", "server", addr)

	conn, err := network.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := network.OptimizeTCPConnection(conn); err != nil {
		slog.Warn("Failed to optimize TCP connection", "error", err)
	}

	slog.Info("Connected to sender", "remote_addr", conn.RemoteAddr().String())

	report, reason := NewReceiver(cfg).Receive(conn)
	logging.LogReceiveReport(report.Bytes, report.Seconds, report.Rate.String(), report.Rate.Mbps(), reason)
	return nil
}

// Receive reads src until it fails or returns idleThreshold empty reads in a
// row. It always returns a report together with a ReceiveError that says
// which of the two ended the loop.
func (r *Receiver) Receive(src io.Reader) (progress.Report, error) {
	buf := make([]byte, r.bufferSize)
	meter := progress.NewMeter("receiver", r.traceInterval, r.now)

	var (
		emptyReads int
		reason     error
	)

	start := r.now()
	for {
		n, err := src.Read(buf)
		if n > 0 {
			emptyReads = 0
			meter.Add(n)
		}

		if err != nil {
			reason = errors.NewPeerClosedError(err)
			break
		}

		if n == 0 {
			emptyReads++
			if emptyReads >= r.idleThreshold {
				reason = errors.NewStalledError(emptyReads)
				break
			}
		}
	}

	return progress.NewReport(meter.Total(), start, r.now()), reason
}
