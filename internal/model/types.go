// Package model holds the value types shared by the validation engine and its
// collaborators.
package model

import "time"

// DomainType is the category a domain is classified into.
type DomainType string

const (
	TypeCorporate      DomainType = "CORPORATE"
	TypePublicProvider DomainType = "PUBLIC_PROVIDER"
	TypeDisposable     DomainType = "DISPOSABLE"
	TypeEducational    DomainType = "EDUCATIONAL"
	TypeGovernment     DomainType = "GOVERNMENT"
	TypeUnreachable    DomainType = "UNREACHABLE"
	TypeSuspicious     DomainType = "SUSPICIOUS"
)

// DomainTypes lists every category in a stable order.
var DomainTypes = []DomainType{
	TypeCorporate,
	TypePublicProvider,
	TypeDisposable,
	TypeEducational,
	TypeGovernment,
	TypeUnreachable,
	TypeSuspicious,
}

// Valid reports whether t is one of the known categories.
func (t DomainType) Valid() bool {
	for _, known := range DomainTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidationStatus summarises the technical state of a domain.
type ValidationStatus string

const (
	StatusValid      ValidationStatus = "VALID"
	StatusInvalid    ValidationStatus = "INVALID"
	StatusSuspicious ValidationStatus = "SUSPICIOUS"
	StatusUnknown    ValidationStatus = "UNKNOWN"
)

// Recommendation is the action suggested for a signup using the domain.
type Recommendation string

const (
	RecommendAccept       Recommendation = "ACCEPT"
	RecommendReject       Recommendation = "REJECT"
	RecommendManualReview Recommendation = "MANUAL_REVIEW"
)

// ProbeResult is the snapshot of everything the network probes learned
// about a domain. A zero value means "nothing could be confirmed".
type ProbeResult struct {
	HasMX             bool       `json:"has_mx_record"`
	MXServers         []string   `json:"mx_servers"`
	HasA              bool       `json:"has_a_record"`
	WebsiteAccessible bool       `json:"website_accessible"`
	HasSSL            bool       `json:"has_ssl_certificate"`
	StatusCode        *int       `json:"status_code,omitempty"`
	FinalURL          string     `json:"final_url,omitempty"`
	Redirects         int        `json:"redirects,omitempty"`
	SSLIssuer         string     `json:"ssl_issuer,omitempty"`
	SSLExpiresAt      *time.Time `json:"ssl_expires_at,omitempty"`
}

// Exists reports whether the domain resolved to anything at all.
func (p ProbeResult) Exists() bool {
	return p.HasMX || p.HasA
}

// MergeDNS copies the DNS half of other into p.
func (p *ProbeResult) MergeDNS(other ProbeResult) {
	p.HasMX = other.HasMX
	p.MXServers = other.MXServers
	p.HasA = other.HasA
}

// MergeHTTP copies the HTTP/TLS half of other into p.
func (p *ProbeResult) MergeHTTP(other ProbeResult) {
	p.WebsiteAccessible = other.WebsiteAccessible
	p.HasSSL = other.HasSSL
	p.StatusCode = other.StatusCode
	p.FinalURL = other.FinalURL
	p.Redirects = other.Redirects
	p.SSLIssuer = other.SSLIssuer
	p.SSLExpiresAt = other.SSLExpiresAt
}

// ValidationResult is the unit returned to callers and stored in the cache.
// It is treated as immutable once built.
type ValidationResult struct {
	Domain           string           `json:"domain"`
	DomainType       DomainType       `json:"domain_type"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	QualityScore     float64          `json:"quality_score"`
	Recommendation   Recommendation   `json:"recommendation"`
	Metadata         ProbeResult      `json:"metadata"`
	CheckedAt        time.Time        `json:"checked_at"`
	Override         bool             `json:"manual_override,omitempty"`
}

// BatchResult is returned by batch validation.
type BatchResult struct {
	Results        []ValidationResult `json:"results"`
	TotalProcessed int                `json:"total_processed"`
	ElapsedSeconds float64            `json:"processing_time_seconds"`
}
