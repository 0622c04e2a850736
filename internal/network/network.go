package network

import (
	"log/slog"
	"net"

	"github.com/winlinvip/go-writev/internal/config"
	"github.com/winlinvip/go-writev/internal/errors"
)

// Listen binds an IPv4 TCP listener. The runtime sets SO_REUSEADDR on unix
// platforms, so a restarted sender can rebind right away.
func Listen(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, errors.NewNetworkError("listen", addr, err)
	}
	return listener, nil
}

// Dial connects to a sender over IPv4 TCP.
func Dial(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp4", addr)
	if err != nil {
		return nil, errors.NewNetworkError("dial", addr, err)
	}
	return conn, nil
}

// OptimizeTCPConnection applies TCP options to a connection. Nagle's
// algorithm stays enabled so the kernel, not the strategy under test, decides
// how small writes are packed into segments.
func OptimizeTCPConnection(conn net.Conn) error {
	tcpConn, isTCP := conn.(*net.TCPConn)
	if !isTCP {
		return nil // Not a TCP connection, skip optimizations
	}

	// Enable keep-alive to detect dead connections
	if err := tcpConn.SetKeepAlive(true); err != nil {
		return errors.NewNetworkError("set_keepalive", conn.RemoteAddr().String(), err)
	}

	if err := tcpConn.SetKeepAlivePeriod(config.KeepAlivePeriod); err != nil {
		slog.Warn("Failed to set TCP keepalive period", "error", err)
	}

	if err := tcpConn.SetNoDelay(false); err != nil {
		slog.Warn("Failed to enable Nagle's algorithm", "error", err)
	}

	// Set larger buffer sizes for high throughput
	if err := tcpConn.SetReadBuffer(config.TCPBufferSize); err != nil {
		slog.Warn("Failed to set TCP read buffer", "error", err)
	}

	if err := tcpConn.SetWriteBuffer(config.TCPBufferSize); err != nil {
		slog.Warn("Failed to set TCP write buffer", "error", err)
	}

	return nil
}
