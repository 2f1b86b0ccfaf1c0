package util

import (
	"fmt"
	"net"
)

// GetFreeTCPPort asks the kernel for a free port and releases it again.
// The simulator binds the port shortly after, which leaves a small race
// window, hence the launch path treats bind failures as retryable.
func GetFreeTCPPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("dns failed: %v", err)
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}

	defer func(l *net.TCPListener) {
		_ = l.Close()
	}(l)

	port := l.Addr().(*net.TCPAddr).Port
	if port == 0 {
		return 0, fmt.Errorf("could not resolve a port (got 0)")
	}

	return port, nil
}
