// Package classify holds the deterministic rules that turn probe results and
// list membership into a category, a quality score and a recommendation.
// Nothing in here performs I/O.
package classify

import (
	"strings"

	"domain-validator/internal/model"
)

// Membership is the list knowledge about a single domain.
type Membership struct {
	Disposable     bool
	PublicProvider bool
}

var (
	// EducationalSuffixes mark academic institutions.
	EducationalSuffixes = []string{".edu", ".ac.uk", ".edu.au", ".ac.jp", ".ac.za", ".edu.sg"}

	// GovernmentSuffixes mark government bodies.
	GovernmentSuffixes = []string{".gov", ".gov.uk", ".gov.au", ".gov.ca", ".gouv.fr", ".gob.es"}

	// SuspiciousKeywords trigger when found anywhere in the domain.
	SuspiciousKeywords = []string{
		"temp", "fake", "test", "spam", "trash", "disposable",
		"guerrilla", "mailinator", "throwaway", "burner",
	}

	// LowTrustSuffixes are TLDs dominated by throwaway registrations.
	LowTrustSuffixes = []string{".tk", ".ml", ".ga", ".cf", ".top", ".click", ".download"}
)

// rule is one step of the classification chain.
type rule struct {
	name  string
	match func(domain string, probe model.ProbeResult, m Membership) bool
	then  model.DomainType
}

// chain is evaluated top to bottom; the first match wins.
var chain = []rule{
	{"unreachable", func(_ string, p model.ProbeResult, _ Membership) bool { return !p.Exists() }, model.TypeUnreachable},
	{"disposable", func(_ string, _ model.ProbeResult, m Membership) bool { return m.Disposable }, model.TypeDisposable},
	{"public_provider", func(_ string, _ model.ProbeResult, m Membership) bool { return m.PublicProvider }, model.TypePublicProvider},
	{"educational", func(d string, _ model.ProbeResult, _ Membership) bool { return IsEducational(d) }, model.TypeEducational},
	{"government", func(d string, _ model.ProbeResult, _ Membership) bool { return IsGovernment(d) }, model.TypeGovernment},
	{"suspicious", func(d string, p model.ProbeResult, _ Membership) bool { return IsSuspicious(d, p) }, model.TypeSuspicious},
	{"corporate", func(_ string, p model.ProbeResult, _ Membership) bool { return p.HasMX && p.WebsiteAccessible }, model.TypeCorporate},
}

// Classify maps a normalized domain, its probe results and its list
// membership to exactly one category.
func Classify(domain string, probe model.ProbeResult, m Membership) model.DomainType {
	t, _ := Explain(domain, probe, m)
	return t
}

// Explain is Classify that also returns the name of the rule that fired.
// The fallback is reported as "default".
func Explain(domain string, probe model.ProbeResult, m Membership) (model.DomainType, string) {
	domain = strings.ToLower(domain)
	for _, r := range chain {
		if r.match(domain, probe, m) {
			return r.then, r.name
		}
	}
	return model.TypeSuspicious, "default"
}

// IsEducational reports whether domain ends in an academic suffix.
func IsEducational(domain string) bool {
	return hasAnySuffix(domain, EducationalSuffixes)
}

// IsGovernment reports whether domain ends in a government suffix.
func IsGovernment(domain string) bool {
	return hasAnySuffix(domain, GovernmentSuffixes)
}

// IsSuspicious applies the heuristic: a keyword hit, a low-trust TLD, or a
// mail-looking domain without an MX record.
func IsSuspicious(domain string, probe model.ProbeResult) bool {
	domain = strings.ToLower(domain)
	for _, kw := range SuspiciousKeywords {
		if strings.Contains(domain, kw) {
			return true
		}
	}
	if hasAnySuffix(domain, LowTrustSuffixes) {
		return true
	}
	return !probe.HasMX && strings.Contains(domain, "mail")
}

func hasAnySuffix(domain string, suffixes []string) bool {
	domain = strings.ToLower(domain)
	for _, s := range suffixes {
		if strings.HasSuffix(domain, s) {
			return true
		}
	}
	return false
}

// Status derives the technical validation status from DNS results alone.
func Status(probe model.ProbeResult) model.ValidationStatus {
	switch {
	case !probe.Exists():
		return model.StatusInvalid
	case probe.HasMX && probe.HasA:
		return model.StatusValid
	case probe.HasMX || probe.HasA:
		return model.StatusSuspicious
	default:
		return model.StatusUnknown
	}
}
