package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"domain-validator/internal/model"
)

// ProbeHTTP checks whether the domain serves a website and whether it
// presents a certificate. The website check and the raw TLS handshake run
// concurrently; HasSSL is true if either of them saw TLS.
func (e *Engine) ProbeHTTP(ctx context.Context, domain string) model.ProbeResult {
	ctx, span := e.tracer.Start(ctx, "probe.http")
	span.SetAttributes(attribute.String("domain", domain))
	defer span.End()

	var (
		site websiteResult
		cert certResult
		wg   sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		site = e.checkWebsite(ctx, domain)
	}()
	go func() {
		defer wg.Done()
		cert = e.checkCertificate(ctx, domain)
	}()
	wg.Wait()

	result := model.ProbeResult{
		WebsiteAccessible: site.accessible,
		HasSSL:            site.https || cert.present,
		FinalURL:          site.finalURL,
		Redirects:         site.redirects,
		SSLIssuer:         cert.issuer,
	}
	if site.accessible {
		code := site.statusCode
		result.StatusCode = &code
	}
	if cert.present {
		expires := cert.expiresAt
		result.SSLExpiresAt = &expires
	}

	span.SetAttributes(attribute.Bool("website_accessible", result.WebsiteAccessible), attribute.Bool("has_ssl", result.HasSSL))
	return result
}

type websiteResult struct {
	accessible bool
	https      bool
	statusCode int
	finalURL   string
	redirects  int
}

// checkWebsite tries https first and plain http second, following
// redirects. Any HTTP response, whatever its status, means accessible.
func (e *Engine) checkWebsite(ctx context.Context, domain string) websiteResult {
	defer e.observe("http", time.Now())

	for _, scheme := range []string{"https", "http"} {
		res, err := e.fetch(ctx, scheme+"://"+domain)
		if err != nil {
			e.log.WithError(err).WithField("domain", domain).WithField("scheme", scheme).Debug("website probe failed")
			continue
		}
		return res
	}
	return websiteResult{}
}

func (e *Engine) fetch(ctx context.Context, url string) (websiteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return websiteResult{}, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return websiteResult{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	final := resp.Request.URL
	redirects := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		redirects++
	}

	return websiteResult{
		accessible: true,
		https:      final.Scheme == "https",
		statusCode: resp.StatusCode,
		finalURL:   final.String(),
		redirects:  redirects,
	}, nil
}

type certResult struct {
	present   bool
	issuer    string
	expiresAt time.Time
}

// checkCertificate performs a bare TLS handshake on the HTTPS port. Only a
// certificate that verifies against the configured roots counts.
func (e *Engine) checkCertificate(ctx context.Context, domain string) certResult {
	defer e.observe("tls", time.Now())
	ctx, cancel := context.WithTimeout(ctx, e.tlsTimeout)
	defer cancel()

	conn, err := e.dialer.DialContext(ctx, "tcp", net.JoinHostPort(domain, e.tlsPort))
	if err != nil {
		e.log.WithError(err).WithField("domain", domain).Debug("TLS dial failed")
		return certResult{}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	cfg := e.baseTLSConfig()
	cfg.ServerName = domain
	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		e.log.WithError(err).WithField("domain", domain).Debug("TLS handshake failed")
		return certResult{}
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return certResult{}
	}
	leaf := certs[0]
	issuer := "Unknown"
	if len(leaf.Issuer.Organization) > 0 {
		issuer = leaf.Issuer.Organization[0]
	}
	return certResult{
		present:   true,
		issuer:    issuer,
		expiresAt: leaf.NotAfter.UTC(),
	}
}
