package public

import (
	"fmt"
	"net"
	"os"
)

var (
	// Listener is the configured listen address
	Listener string

	// Addr is the public url of the listener
	Addr string
)

func genericInterface(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

// SetListener sets the listen address and derives the public url unless already set
func SetListener(addr string) (string, error) {
	Listener = addr

	var err error
	if Addr == "" {
		_, err = SetAddr(Listener)
	}

	return Listener, err
}

// SetAddr derives the public url from a listen address, replacing generic hosts with the hostname
func SetAddr(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}

	if host == "" || genericInterface(host) {
		if host, err = os.Hostname(); err != nil {
			return "", err
		}
	}

	Addr = fmt.Sprintf("http://%s", net.JoinHostPort(host, port))

	return Addr, nil
}
