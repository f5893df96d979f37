package entity

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ProxyEndpoint is one HTTP proxy in the pool. Two endpoints are the same proxy
// when host and port match.
type ProxyEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the endpoint as host:port.
func (p ProxyEndpoint) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// URL returns the proxy URL used by HTTP transports.
func (p ProxyEndpoint) URL() string {
	return "http://" + p.Addr()
}

func (p ProxyEndpoint) String() string {
	return p.Addr()
}

// ParseProxyEndpoint parses a "host:port" line.
func ParseProxyEndpoint(s string) (ProxyEndpoint, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return ProxyEndpoint{}, fmt.Errorf("invalid proxy address %q: %w", s, err)
	}
	if host == "" {
		return ProxyEndpoint{}, fmt.Errorf("invalid proxy address %q: empty host", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return ProxyEndpoint{}, fmt.Errorf("invalid proxy port in %q", s)
	}
	return ProxyEndpoint{Host: host, Port: port}, nil
}
