package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain domain", "example.com", "example.com"},
		{"uppercase", "Example.COM", "example.com"},
		{"surrounding whitespace", "  example.com \t", "example.com"},
		{"email address", "user@harvard.edu", "harvard.edu"},
		{"email with uppercase", "John.Doe@Gmail.Com", "gmail.com"},
		{"trailing root dot", "example.com.", "example.com"},
		{"multiple at signs keep last part", "a@b@example.org", "example.org"},
		{"unicode label becomes punycode", "bücher.de", "xn--bcher-kva.de"},
		{"garbage is still lowercased", "Not A Domain", "not a domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "user@", "@", " . "} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrEmptyDomain, "input %q", raw)
	}
}

func TestNormalizeInputReportsEmailShape(t *testing.T) {
	_, ok := NormalizeInput("user@example.com")
	assert.True(t, ok)

	_, ok = NormalizeInput("bad user@@example.com")
	assert.False(t, ok)

	_, ok = NormalizeInput("example.com")
	assert.False(t, ok)
}

func TestValidationResultJSONRoundTrip(t *testing.T) {
	code := 200
	expires := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	in := ValidationResult{
		Domain:           "example.com",
		DomainType:       TypeCorporate,
		ValidationStatus: StatusValid,
		QualityScore:     9.3,
		Recommendation:   RecommendAccept,
		Metadata: ProbeResult{
			HasMX:             true,
			MXServers:         []string{"mx1.example.com", "mx2.example.com"},
			HasA:              true,
			WebsiteAccessible: true,
			HasSSL:            true,
			StatusCode:        &code,
			FinalURL:          "https://example.com/",
			SSLIssuer:         "Example CA",
			SSLExpiresAt:      &expires,
		},
		CheckedAt: time.Date(2026, 10, 19, 12, 0, 0, 123456789, time.UTC),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out ValidationResult
	require.NoError(t, json.Unmarshal(data, &out))

	assert.True(t, in.CheckedAt.Equal(out.CheckedAt))
	out.CheckedAt = in.CheckedAt
	assert.Equal(t, in, out)
}

func TestDomainTypeValid(t *testing.T) {
	for _, dt := range DomainTypes {
		assert.True(t, dt.Valid())
	}
	assert.False(t, DomainType("PERSONAL").Valid())
}
