package probe

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// ProxyConfig contains SOCKS5 proxy configuration for outbound probes.
type ProxyConfig struct {
	Address  string // host:port
	Username string
	Password string
}

// NewDialer returns the dialer used for HTTP and TLS probes. With a proxy
// configured every outbound connection goes through SOCKS5; there is no
// silent fallback to direct connections.
func NewDialer(cfg *ProxyConfig, timeout time.Duration) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if cfg == nil || cfg.Address == "" {
		return direct, nil
	}

	var auth *proxy.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = &proxy.Auth{
			User:     cfg.Username,
			Password: cfg.Password,
		}
	}

	d, err := proxy.SOCKS5("tcp", cfg.Address, auth, direct)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", cfg.Address)
	}
	return cd, nil
}
