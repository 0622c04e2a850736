// Package engine sends groups of header/payload buffers over a stream socket
// using one of three strategies: a single gather write, one write per buffer,
// or one write of a coalesced copy.
package engine

import (
	"fmt"
	"io"

	"github.com/winlinvip/go-writev/internal/errors"
	"github.com/winlinvip/go-writev/internal/protocol"
)

// Strategy selects how a group is put on the wire.
type Strategy int

const (
	// ScatterGather submits every buffer of the group in one gather write.
	ScatterGather Strategy = iota
	// WriteSequential issues one write per buffer, in wire order.
	WriteSequential
	// WriteCoalesced copies the group into one staging buffer and writes it once.
	WriteCoalesced
)

func (s Strategy) String() string {
	switch s {
	case ScatterGather:
		return "scatter-gather"
	case WriteSequential:
		return "write-sequential"
	case WriteCoalesced:
		return "write-coalesced"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// SelectStrategy maps the sender's command line switches to a strategy.
func SelectStrategy(scatterGather, oneByOne bool) Strategy {
	switch {
	case scatterGather:
		return ScatterGather
	case oneByOne:
		return WriteSequential
	default:
		return WriteCoalesced
	}
}

// Conn is a connected, writable stream socket.
type Conn interface {
	io.Writer
	// Writev writes all buffers with a single gather call and returns the
	// total number of bytes written.
	Writev(bufs [][]byte) (int64, error)
}

// Engine sends groups with a fixed strategy. It holds no per-connection
// state and no buffers between calls.
type Engine struct {
	strategy Strategy
	staging  Allocator
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllocator sets where WriteCoalesced gets its staging buffers from.
func WithAllocator(a Allocator) Option {
	return func(e *Engine) {
		e.staging = a
	}
}

// New creates an engine for the given strategy.
func New(strategy Strategy, opts ...Option) *Engine {
	e := &Engine{strategy: strategy}
	for _, opt := range opts {
		opt(e)
	}
	if e.staging == nil {
		e.staging = HeapAllocator{}
	}
	return e
}

// Strategy returns the engine's strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Send writes the whole group to conn in wire order and returns the number of
// bytes written, which always equals g.Len() on success. Any failing write
// aborts the group and is reported once as an error matching
// errors.ErrSendFailed. Nothing is retried.
func (e *Engine) Send(conn Conn, g *protocol.Group) (int, error) {
	switch e.strategy {
	case ScatterGather:
		return e.sendScatterGather(conn, g)
	case WriteSequential:
		return e.sendSequential(conn, g)
	case WriteCoalesced:
		return e.sendCoalesced(conn, g)
	}
	return 0, errors.NewConfigError("strategy", e.strategy, "unknown send strategy")
}

func (e *Engine) sendScatterGather(conn Conn, g *protocol.Group) (int, error) {
	expected := g.Len()

	n, err := conn.Writev(g.Buffers())
	if err != nil {
		return 0, errors.NewSendError(e.strategy.String(), 1, err)
	}
	if n != int64(expected) {
		return 0, errors.NewSendError(e.strategy.String(), 1, io.ErrShortWrite)
	}
	return expected, nil
}

func (e *Engine) sendSequential(conn Conn, g *protocol.Group) (int, error) {
	var total, call int
	for _, p := range g.Pairs {
		for _, b := range [2][]byte{p.Header, p.Payload} {
			call++
			n, err := conn.Write(b)
			if err != nil {
				return 0, errors.NewSendError(e.strategy.String(), call, err)
			}
			if n != len(b) {
				return 0, errors.NewSendError(e.strategy.String(), call, io.ErrShortWrite)
			}
			total += n
		}
	}
	return total, nil
}

func (e *Engine) sendCoalesced(conn Conn, g *protocol.Group) (int, error) {
	expected := g.Len()

	buf := e.staging.Get(expected)
	defer e.staging.Put(buf)

	var off int
	for _, p := range g.Pairs {
		off += copy(buf[off:], p.Header)
		off += copy(buf[off:], p.Payload)
	}

	n, err := conn.Write(buf[:off])
	if err != nil {
		return 0, errors.NewSendError(e.strategy.String(), 1, err)
	}
	if n != expected {
		return 0, errors.NewSendError(e.strategy.String(), 1, io.ErrShortWrite)
	}
	return n, nil
}
