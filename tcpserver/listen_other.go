//go:build !unix

package tcpserver

import "net"

func listenConfig() net.ListenConfig {
	return net.ListenConfig{}
}
