//go:build unix

package tcpserver

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig enables SO_REUSEADDR on the listening socket before bind.
func listenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, rc syscall.RawConn) error {
			var sockErr error
			if err := rc.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}

			return sockErr
		},
	}
}
