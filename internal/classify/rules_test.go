package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"domain-validator/internal/model"
)

var (
	reachable = model.ProbeResult{HasMX: true, HasA: true, WebsiteAccessible: true, HasSSL: true}
	noRecords = model.ProbeResult{}
	aOnly     = model.ProbeResult{HasA: true, WebsiteAccessible: true}
	mxOnly    = model.ProbeResult{HasMX: true}
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		probe  model.ProbeResult
		member Membership
		want   model.DomainType
		rule   string
	}{
		{"no records beats everything", "mailinator.com", noRecords, Membership{Disposable: true}, model.TypeUnreachable, "unreachable"},
		{"disposable list", "tempmail.com", reachable, Membership{Disposable: true, PublicProvider: true}, model.TypeDisposable, "disposable"},
		{"public provider list", "gmail.com", reachable, Membership{PublicProvider: true}, model.TypePublicProvider, "public_provider"},
		{"edu suffix", "harvard.edu", reachable, Membership{}, model.TypeEducational, "educational"},
		{"ac.uk suffix", "ox.ac.uk", mxOnly, Membership{}, model.TypeEducational, "educational"},
		{"gov suffix", "nasa.gov", reachable, Membership{}, model.TypeGovernment, "government"},
		{"gouv.fr suffix", "interieur.gouv.fr", aOnly, Membership{}, model.TypeGovernment, "government"},
		{"keyword beats corporate", "mytestcompany.com", reachable, Membership{}, model.TypeSuspicious, "suspicious"},
		{"low trust tld", "shop.tk", reachable, Membership{}, model.TypeSuspicious, "suspicious"},
		{"mail without mx", "supermail.io", aOnly, Membership{}, model.TypeSuspicious, "suspicious"},
		{"mail with mx is fine", "supermail.io", reachable, Membership{}, model.TypeCorporate, "corporate"},
		{"corporate", "acme.com", reachable, Membership{}, model.TypeCorporate, "corporate"},
		{"mx but no website falls back", "acme.com", mxOnly, Membership{}, model.TypeSuspicious, "default"},
		{"website but no mx falls back", "acme.com", aOnly, Membership{}, model.TypeSuspicious, "default"},
		{"case insensitive suffix", "HARVARD.EDU", reachable, Membership{}, model.TypeEducational, "educational"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := Explain(tt.domain, tt.probe, tt.member)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, got, Classify(tt.domain, tt.probe, tt.member))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Equal(t, model.TypeCorporate, Classify("acme.com", reachable, Membership{}))
	}
}

func TestSuffixHelpers(t *testing.T) {
	assert.True(t, IsEducational("mit.edu"))
	assert.True(t, IsEducational("u-tokyo.ac.jp"))
	assert.False(t, IsEducational("edu"))
	assert.False(t, IsEducational("education.com"))

	assert.True(t, IsGovernment("gov.uk.gov.uk"))
	assert.True(t, IsGovernment("hacienda.gob.es"))
	assert.False(t, IsGovernment("governor.com"))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, model.StatusInvalid, Status(noRecords))
	assert.Equal(t, model.StatusValid, Status(reachable))
	assert.Equal(t, model.StatusSuspicious, Status(mxOnly))
	assert.Equal(t, model.StatusSuspicious, Status(aOnly))
}
