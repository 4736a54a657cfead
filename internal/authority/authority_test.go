package authority

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority() *Authority {
	return New("example.com.", SOAParams{
		Master:      "ns1.example.com.",
		Responsible: "hostmaster.example.com.",
		Refresh:     7200,
		Retry:       3600,
		Expire:      1209600,
		TTL:         3600,
	}, []string{"ns1.example.com.", "ns2.example.com."})
}

func TestNewAuthoritySerialDefaultsToOne(t *testing.T) {
	a := newTestAuthority()
	soa := a.SOA()
	require.Len(t, soa, 1)
	assert.Equal(t, uint32(1), soa[0].(*dns.SOA).Serial)
}

func TestNewAuthorityNSCount(t *testing.T) {
	a := newTestAuthority()
	assert.Len(t, a.NS(), 2)
}

func TestAuthoritySearchApexSOA(t *testing.T) {
	a := newTestAuthority()
	result := a.Search("example.com.", dns.TypeSOA)
	assert.Equal(t, Records, result.Outcome)
	require.Len(t, result.Records, 1)
}

func TestAuthoritySearchApexNS(t *testing.T) {
	a := newTestAuthority()
	result := a.Search("example.com.", dns.TypeNS)
	assert.Equal(t, Records, result.Outcome)
	assert.Len(t, result.Records, 2)
}

func TestAuthoritySearchApexOtherType(t *testing.T) {
	a := newTestAuthority()
	result := a.Search("example.com.", dns.TypeA)
	assert.Equal(t, NameExists, result.Outcome)
	assert.Empty(t, result.Records)
}

func TestAuthoritySearchInZoneNonApex(t *testing.T) {
	a := newTestAuthority()
	result := a.Search("www.example.com.", dns.TypeMX)
	assert.Equal(t, NameExists, result.Outcome)
}

func TestAuthoritySearchOutOfZoneIsDefensiveNoName(t *testing.T) {
	a := newTestAuthority()
	result := a.Search("unrelated.org.", dns.TypeA)
	assert.Equal(t, NoName, result.Outcome)
}

func TestTableFindLongestSuffix(t *testing.T) {
	table := NewTable()
	table.Insert(New("example.com.", SOAParams{}, nil))
	table.Insert(New("sub.example.com.", SOAParams{}, nil))

	a, ok := table.Find("www.sub.example.com.")
	require.True(t, ok)
	assert.Equal(t, "sub.example.com.", a.Origin())

	a, ok = table.Find("www.example.com.")
	require.True(t, ok)
	assert.Equal(t, "example.com.", a.Origin())

	_, ok = table.Find("unrelated.org.")
	assert.False(t, ok)
}

func TestTableFindExactApex(t *testing.T) {
	table := NewTable()
	table.Insert(New("example.com.", SOAParams{}, nil))

	a, ok := table.Find("example.com.")
	require.True(t, ok)
	assert.Equal(t, "example.com.", a.Origin())
}
