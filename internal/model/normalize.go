package model

import (
	"errors"
	"strings"

	"github.com/badoux/checkmail"
	"golang.org/x/net/idna"
)

// ErrEmptyDomain is returned when nothing usable is left after normalization.
var ErrEmptyDomain = errors.New("domain is empty after normalization")

// Normalize turns a domain or an email address into the lowercase ASCII
// domain used as the identity of a validation. Malformed input is still
// normalized as far as possible; only an empty result is an error.
func Normalize(raw string) (string, error) {
	domain, _ := NormalizeInput(raw)
	if domain == "" {
		return "", ErrEmptyDomain
	}
	return domain, nil
}

// NormalizeInput is Normalize without the empty check. The second return
// value reports whether raw looked like a well-formed email address.
func NormalizeInput(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	wellFormed := false

	if at := strings.LastIndex(s, "@"); at >= 0 {
		wellFormed = checkmail.ValidateFormat(s) == nil
		s = s[at+1:]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", wellFormed
	}

	if ascii, err := idna.Lookup.ToASCII(s); err == nil && ascii != "" {
		s = ascii
	}
	return s, wellFormed
}
