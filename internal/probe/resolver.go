package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs the two DNS lookups the engine needs.
type Resolver interface {
	LookupMX(ctx context.Context, host string) ([]*net.MX, error)
	LookupA(ctx context.Context, host string) ([]net.IP, error)
}

// SystemResolver uses the operating system's resolver configuration.
type SystemResolver struct {
	r *net.Resolver
}

// NewSystemResolver returns a resolver backed by net.DefaultResolver.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{r: net.DefaultResolver}
}

func (s *SystemResolver) LookupMX(ctx context.Context, host string) ([]*net.MX, error) {
	return s.r.LookupMX(ctx, host)
}

func (s *SystemResolver) LookupA(ctx context.Context, host string) ([]net.IP, error) {
	return s.r.LookupIP(ctx, "ip4", host)
}

// ErrNoAnswer is returned by UpstreamResolver when no server answered.
var ErrNoAnswer = errors.New("no dns server answered")

// UpstreamResolver queries explicit nameservers directly, bypassing the
// host's resolver. Servers are tried in order until one answers.
type UpstreamResolver struct {
	servers []string
	client  *dns.Client
}

// NewUpstreamResolver builds a resolver for servers given as host or host:port.
func NewUpstreamResolver(servers []string, timeout time.Duration) *UpstreamResolver {
	normalized := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		normalized = append(normalized, s)
	}
	return &UpstreamResolver{
		servers: normalized,
		client:  &dns.Client{Timeout: timeout},
	}
}

func (u *UpstreamResolver) LookupMX(ctx context.Context, host string) ([]*net.MX, error) {
	in, err := u.exchange(ctx, host, dns.TypeMX)
	if err != nil {
		return nil, err
	}
	var out []*net.MX
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			out = append(out, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	return out, nil
}

func (u *UpstreamResolver) LookupA(ctx context.Context, host string) ([]net.IP, error) {
	in, err := u.exchange(ctx, host, dns.TypeA)
	if err != nil {
		return nil, err
	}
	var out []net.IP
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			out = append(out, a.A)
		}
	}
	return out, nil
}

func (u *UpstreamResolver) exchange(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	lastErr := ErrNoAnswer
	for _, server := range u.servers {
		in, _, err := u.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", server, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}
		if in.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("query %s: %s", server, dns.RcodeToString[in.Rcode])
		}
		return in, nil
	}
	return nil, lastErr
}
