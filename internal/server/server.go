package server

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/engine"
	"github.com/winlinvip/go-writev/internal/errors"
	"github.com/winlinvip/go-writev/internal/logging"
	"github.com/winlinvip/go-writev/internal/network"
	"github.com/winlinvip/go-writev/internal/progress"
	"github.com/winlinvip/go-writev/internal/protocol"
)

// State is the sender's position in its accept/stream cycle.
type State int

const (
	// Listening waits for the next connection.
	Listening State = iota
	// Streaming sends groups to the accepted connection until a send fails.
	Streaming
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StreamResult describes one finished connection.
type StreamResult struct {
	RemoteAddr string
	Groups     uint64
	Bytes      uint64
	Socket     network.SocketStats
	Duration   time.Duration
	Err        error
}

// Server accepts one connection at a time and streams groups to it.
type Server struct {
	cfg    *config.Config
	engine *engine.Engine

	onState  func(State)
	onStream func(StreamResult)
}

// Option configures a Server.
type Option func(*Server)

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(s *Server) {
		s.onState = fn
	}
}

// WithStreamHook registers fn to be called when a connection is dropped.
func WithStreamHook(fn func(StreamResult)) Option {
	return func(s *Server) {
		s.onStream = fn
	}
}

// New creates a server that sends with e.
func New(cfg *config.Config, e *engine.Engine, opts ...Option) *Server {
	s := &Server{cfg: cfg, engine: e}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the sender with the given configuration. It only returns on a
// listen or accept failure.
func Run(cfg *config.Config) error {
	strategy := engine.SelectStrategy(cfg.ScatterGather, cfg.WriteOneByOne)
	slog.Info("Starting sender", "address", cfg.ListenAddress(), "strategy", strategy)

	listener, err := network.Listen(cfg.ListenAddress())
	if err != nil {
		return err
	}
	defer listener.Close()

	slog.Info("Sender ready to accept connections")
	return New(cfg, engine.New(strategy)).Serve(listener)
}

// Serve runs the accept/stream cycle on listener. A failed send drops the
// connection and returns to Listening; an accept failure is fatal and is
// returned.
func (s *Server) Serve(listener net.Listener) error {
	for {
		s.transition(Listening)

		conn, err := listener.Accept()
		if err != nil {
			return errors.NewNetworkError("accept", listener.Addr().String(), err)
		}

		s.transition(Streaming)
		result := s.stream(conn)

		slog.Warn("Connection dropped, back to listening",
			"remote_addr", result.RemoteAddr,
			"error", result.Err)
		if s.onStream != nil {
			s.onStream(result)
		}
	}
}

func (s *Server) transition(state State) {
	if s.onState != nil {
		s.onState(state)
	}
}

// stream sends fresh groups to conn until one fails, then closes conn.
func (s *Server) stream(conn net.Conn) StreamResult {
	defer conn.Close()

	if err := network.OptimizeTCPConnection(conn); err != nil {
		slog.Warn("Failed to optimize TCP connection", "error", err)
	}

	sock := network.NewSocket(conn)
	remoteAddr := sock.RemoteAddr().String()
	meter := progress.NewMeter("sender", s.cfg.TraceInterval, time.Now)
	start := time.Now()
	logging.LogStreamStart(remoteAddr, s.engine.Strategy().String())

	result := StreamResult{RemoteAddr: remoteAddr}
	for seq := uint64(0); ; seq++ {
		g, err := protocol.NewGroup(seq, s.cfg.GroupSize, s.cfg.HeaderSize, s.cfg.PayloadSize)
		if err != nil {
			result.Err = errors.NewConfigError("group", s.cfg.String(), err.Error())
			break
		}

		n, err := s.engine.Send(sock, g)
		g.Release()
		if err != nil {
			result.Err = err
			break
		}

		result.Groups++
		result.Bytes += uint64(n)
		meter.Add(n)
	}

	result.Socket = sock.Stats()
	result.Duration = time.Since(start)
	logging.LogStreamEnd(remoteAddr, result.Groups, result.Bytes, result.Socket.Syscalls, result.Duration)
	return result
}
