//go:build !linux && !darwin

package network

// writev falls back to net.Buffers, which uses the platform's own vectored
// write when the connection supports one.
func (s *Socket) writev(iovs [][]byte) (int64, error) {
	return s.writeBuffers(iovs)
}
