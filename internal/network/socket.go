package network

import (
	"net"
	"syscall"
)

// SocketStats counts write-family calls made through a Socket. Writes and
// Writevs count calls from the caller's side; Syscalls counts the system
// calls they turned into, which can be higher when the kernel accepts a
// vector partially.
type SocketStats struct {
	Writes   uint64
	Writevs  uint64
	Syscalls uint64
}

// Socket is a connected stream socket that can write a vector of buffers in
// one gather call. It satisfies engine.Conn.
type Socket struct {
	conn  net.Conn
	raw   syscall.RawConn
	stats SocketStats
}

// NewSocket wraps conn. Connections that expose their file descriptor get a
// real writev; others fall back to net.Buffers.
func NewSocket(conn net.Conn) *Socket {
	s := &Socket{conn: conn}
	if sc, ok := conn.(syscall.Conn); ok {
		if raw, err := sc.SyscallConn(); err == nil {
			s.raw = raw
		}
	}
	return s
}

// Write writes b with one call on the underlying connection.
func (s *Socket) Write(b []byte) (int, error) {
	s.stats.Writes++
	s.stats.Syscalls++
	return s.conn.Write(b)
}

// Writev writes all of bufs with one gather call and returns the number of
// bytes written. The caller's slices are not modified.
func (s *Socket) Writev(bufs [][]byte) (int64, error) {
	s.stats.Writevs++

	// writev and net.Buffers both consume the vector they are given.
	iovs := make([][]byte, 0, len(bufs))
	for _, b := range bufs {
		if len(b) > 0 {
			iovs = append(iovs, b)
		}
	}

	if s.raw == nil {
		return s.writeBuffers(iovs)
	}
	return s.writev(iovs)
}

func (s *Socket) writeBuffers(iovs [][]byte) (int64, error) {
	s.stats.Syscalls++
	buffers := net.Buffers(iovs)
	return buffers.WriteTo(s.conn)
}

// Stats returns the call counters accumulated so far.
func (s *Socket) Stats() SocketStats {
	return s.stats
}

// RemoteAddr returns the peer address.
func (s *Socket) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// consume drops the first n bytes from iovs.
func consume(iovs [][]byte, n int) [][]byte {
	for len(iovs) > 0 {
		if n < len(iovs[0]) {
			iovs[0] = iovs[0][n:]
			return iovs
		}
		n -= len(iovs[0])
		iovs = iovs[1:]
	}
	return iovs
}
