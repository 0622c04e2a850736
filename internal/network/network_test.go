package network

import (
	"bytes"
	stderrors "errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winlinvip/go-writev/internal/errors"
	"github.com/winlinvip/go-writev/internal/protocol"
)

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	listener, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- conn
	}()

	client, err := Dial(listener.Addr().String())
	require.NoError(t, err)
	server := <-accepted
	require.NotNil(t, server)

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return server, client
}

// drain reads everything from conn until it is closed.
func drain(conn net.Conn) <-chan []byte {
	out := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(conn)
		out <- data
	}()
	return out
}

func TestSocketWritevOverTCP(t *testing.T) {
	server, client := tcpPair(t)
	require.NoError(t, OptimizeTCPConnection(server))
	received := drain(client)

	g, err := protocol.NewGroup(3, 10, 12, 1024)
	require.NoError(t, err)

	sock := NewSocket(server)
	n, err := sock.Writev(g.Buffers())
	require.NoError(t, err)
	assert.Equal(t, int64(g.Len()), n)
	require.NoError(t, sock.Close())

	assert.Equal(t, g.Bytes(), <-received)
	stats := sock.Stats()
	assert.Equal(t, uint64(1), stats.Writevs)
	assert.Equal(t, uint64(0), stats.Writes)
	assert.GreaterOrEqual(t, stats.Syscalls, uint64(1))
}

func TestSocketWritevBeyondIovMax(t *testing.T) {
	server, client := tcpPair(t)
	received := drain(client)

	// 1200 buffers, more than one kernel vector can hold.
	g, err := protocol.NewGroup(5, 600, 12, 1024)
	require.NoError(t, err)

	sock := NewSocket(server)
	n, err := sock.Writev(g.Buffers())
	require.NoError(t, err)
	assert.Equal(t, int64(g.Len()), n)
	require.NoError(t, sock.Close())

	assert.Equal(t, g.Bytes(), <-received)
	assert.Equal(t, uint64(1), sock.Stats().Writevs)
}

func TestSocketWriteOverTCP(t *testing.T) {
	server, client := tcpPair(t)
	received := drain(client)

	sock := NewSocket(server)
	n, err := sock.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, sock.Close())

	assert.Equal(t, []byte("hello"), <-received)
	assert.Equal(t, uint64(1), sock.Stats().Writes)
}

func TestSocketWritevFallback(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	received := drain(client)

	sock := NewSocket(server)
	assert.Nil(t, sock.raw)

	bufs := [][]byte{[]byte("ab"), nil, []byte("cde"), []byte("f")}
	n, err := sock.Writev(bufs)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	require.NoError(t, sock.Close())

	assert.Equal(t, []byte("abcdef"), <-received)
}

func TestSocketWritevKeepsCallerSlices(t *testing.T) {
	server, client := tcpPair(t)
	received := drain(client)

	bufs := [][]byte{[]byte("head"), []byte("payload")}
	sock := NewSocket(server)
	_, err := sock.Writev(bufs)
	require.NoError(t, err)
	require.NoError(t, sock.Close())
	<-received

	assert.Equal(t, []byte("head"), bufs[0])
	assert.Equal(t, []byte("payload"), bufs[1])
}

func TestSocketWritevAfterPeerClosed(t *testing.T) {
	server, client := tcpPair(t)
	require.NoError(t, client.Close())

	g, err := protocol.NewGroup(1, 64, 12, 4096)
	require.NoError(t, err)
	sock := NewSocket(server)

	// The first vectors may still be buffered by the kernel; the reset
	// surfaces within a few groups.
	for i := 0; i < 1000; i++ {
		if _, err = sock.Writev(g.Buffers()); err != nil {
			break
		}
	}
	assert.Error(t, err)
}

func TestConsume(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected [][]byte
	}{
		{"nothing", 0, [][]byte{[]byte("abc"), []byte("de")}},
		{"partial first", 1, [][]byte{[]byte("bc"), []byte("de")}},
		{"whole first", 3, [][]byte{[]byte("de")}},
		{"into second", 4, [][]byte{[]byte("e")}},
		{"everything", 5, [][]byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iovs := [][]byte{[]byte("abc"), []byte("de")}
			got := consume(iovs, tt.n)
			assert.Equal(t, len(tt.expected), len(got))
			assert.Equal(t, bytes.Join(tt.expected, nil), bytes.Join(got, nil))
		})
	}
}

func TestListenError(t *testing.T) {
	listener, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	_, err = Listen(listener.Addr().String())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNetwork))
	assert.Contains(t, err.Error(), "listen")
}

func TestDialError(t *testing.T) {
	listener, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = Dial(addr)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNetwork))
	assert.Contains(t, err.Error(), "dial")
}

func TestOptimizeNonTCPConnection(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	assert.NoError(t, OptimizeTCPConnection(a))
}
