package record

import (
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeWireRoundTrip(t *testing.T) {
	for _, kind := range []Type{A, AAAA, CNAME, MX, TXT, PTR} {
		wire, err := kind.ToWire()
		require.NoError(t, err)

		back, err := TypeFromWire(wire)
		require.NoError(t, err)
		assert.Equal(t, kind, back)
	}
}

func TestTypeFromWireUnsupported(t *testing.T) {
	_, err := TypeFromWire(dns.TypeSRV)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParseNameRoundTrip(t *testing.T) {
	cases := []string{"@", "www.@", "a.b.c.@", "*.@", "*.www.@"}
	for _, c := range cases {
		n, ok := ParseName(c)
		require.True(t, ok, c)
		assert.Equal(t, c, string(n))
	}
}

func TestParseNameLowercases(t *testing.T) {
	n, ok := ParseName("WWW.@")
	require.True(t, ok)
	assert.Equal(t, Name("www.@"), n)
}

func TestParseNameRejectsMalformed(t *testing.T) {
	for _, c := range []string{"", "www", "www.com", "@@", "w@w@"} {
		_, ok := ParseName(c)
		assert.False(t, ok, c)
	}
}

func TestNameFromQueryApex(t *testing.T) {
	n, ok := NameFromQuery("example.com.", "example.com.")
	require.True(t, ok)
	assert.Equal(t, Apex, n)
}

func TestNameFromQuerySubdomain(t *testing.T) {
	n, ok := NameFromQuery("example.com.", "www.example.com.")
	require.True(t, ok)
	assert.Equal(t, Name("www.@"), n)
}

func TestNameFromQueryCaseInsensitive(t *testing.T) {
	n, ok := NameFromQuery("Example.COM.", "WWW.example.COM.")
	require.True(t, ok)
	assert.Equal(t, Name("www.@"), n)
}

func TestValueBuildRRTypes(t *testing.T) {
	rrA, err := Value("1.2.3.4").BuildRR("www.example.com.", 300, A)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", rrA.(*dns.A).A.String())

	rrAAAA, err := Value("::1").BuildRR("www.example.com.", 300, AAAA)
	require.NoError(t, err)
	assert.Equal(t, "::1", rrAAAA.(*dns.AAAA).AAAA.String())

	rrCNAME, err := Value("host.example.com.").BuildRR("mail.example.com.", 300, CNAME)
	require.NoError(t, err)
	assert.Equal(t, "host.example.com.", rrCNAME.(*dns.CNAME).Target)

	rrMX, err := Value("10 mail.example.com.").BuildRR("example.com.", 300, MX)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), rrMX.(*dns.MX).Preference)
	assert.Equal(t, "mail.example.com.", rrMX.(*dns.MX).Mx)

	rrPTR, err := Value("host.example.com.").BuildRR("4.3.2.1.in-addr.arpa.", 300, PTR)
	require.NoError(t, err)
	assert.Equal(t, "host.example.com.", rrPTR.(*dns.PTR).Ptr)
}

func TestValueBuildRRInvalid(t *testing.T) {
	_, err := Value("not-an-ip").BuildRR("www.example.com.", 300, A)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Value("").BuildRR("example.com.", 300, CNAME)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Value("abc mail.example.com.").BuildRR("example.com.", 300, MX)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Value("").BuildRR("example.com.", 300, TXT)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValueBuildRRTXTChunking(t *testing.T) {
	payload := strings.Repeat("a", 600)
	rr, err := Value(payload).BuildRR("www.example.com.", 300, TXT)
	require.NoError(t, err)

	txt := rr.(*dns.TXT)
	require.Len(t, txt.Txt, 3)
	assert.Len(t, txt.Txt[0], 255)
	assert.Len(t, txt.Txt[1], 255)
	assert.Len(t, txt.Txt[2], 90)
	assert.Equal(t, payload, strings.Join(txt.Txt, ""))
}

func TestNameSubdomainAndWildcard(t *testing.T) {
	assert.Equal(t, "", Apex.Subdomain())
	assert.Equal(t, "www.", Name("www.@").Subdomain())
	assert.True(t, Name("*.www.@").IsWildcard())
	assert.False(t, Name("www.@").IsWildcard())
}
