//go:build linux || darwin

package network

import (
	"io"

	"golang.org/x/sys/unix"
)

// maxIovecs is IOV_MAX on Linux and Darwin.
const maxIovecs = 1024

// writev hands the vector to the kernel on the socket's own descriptor. The
// runtime poller parks the goroutine on EAGAIN, so the call blocks like a
// plain Write until the whole vector is accepted or an error occurs.
func (s *Socket) writev(iovs [][]byte) (int64, error) {
	var total int64
	var opErr error

	err := s.raw.Write(func(fd uintptr) bool {
		for len(iovs) > 0 {
			batch := iovs
			if len(batch) > maxIovecs {
				batch = batch[:maxIovecs]
			}

			s.stats.Syscalls++
			n, err := unix.Writev(int(fd), batch)
			if n > 0 {
				total += int64(n)
				iovs = consume(iovs, n)
			}

			switch err {
			case nil:
				if n == 0 {
					opErr = io.ErrShortWrite
					return true
				}
			case unix.EINTR:
			case unix.EAGAIN:
				return false
			default:
				opErr = err
				return true
			}
		}
		return true
	})
	if err != nil {
		return total, err
	}
	return total, opErr
}
