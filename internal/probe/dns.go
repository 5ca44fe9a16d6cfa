package probe

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"domain-validator/internal/model"
)

// ProbeDNS resolves MX and A records independently and concurrently. Any
// failure leaves the corresponding fields false/empty.
func (e *Engine) ProbeDNS(ctx context.Context, domain string) model.ProbeResult {
	ctx, span := e.tracer.Start(ctx, "probe.dns")
	span.SetAttributes(attribute.String("domain", domain))
	defer span.End()

	var (
		result model.ProbeResult
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.MXServers = e.lookupMX(ctx, domain)
		result.HasMX = len(result.MXServers) > 0
	}()
	go func() {
		defer wg.Done()
		result.HasA = e.lookupA(ctx, domain)
	}()
	wg.Wait()

	span.SetAttributes(attribute.Bool("has_mx", result.HasMX), attribute.Bool("has_a", result.HasA))
	return result
}

// lookupMX returns MX hosts ordered by preference then name, without the
// trailing dot. A null MX (".") counts as no MX.
func (e *Engine) lookupMX(ctx context.Context, domain string) []string {
	defer e.observe("mx", time.Now())
	ctx, cancel := context.WithTimeout(ctx, e.dnsTimeout)
	defer cancel()

	records, err := e.resolver.LookupMX(ctx, domain)
	if err != nil {
		e.log.WithError(err).WithField("domain", domain).Debug("MX lookup failed")
		return nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Pref != records[j].Pref {
			return records[i].Pref < records[j].Pref
		}
		return records[i].Host < records[j].Host
	})

	var hosts []string
	for _, mx := range records {
		if mx == nil {
			continue
		}
		host := strings.TrimSuffix(strings.TrimSpace(mx.Host), ".")
		if host == "" {
			continue
		}
		hosts = append(hosts, strings.ToLower(host))
	}
	return hosts
}

func (e *Engine) lookupA(ctx context.Context, domain string) bool {
	defer e.observe("a", time.Now())
	ctx, cancel := context.WithTimeout(ctx, e.dnsTimeout)
	defer cancel()

	ips, err := e.resolver.LookupA(ctx, domain)
	if err != nil {
		e.log.WithError(err).WithField("domain", domain).Debug("A lookup failed")
		return false
	}
	return len(ips) > 0
}
