// Package record implements the typed DNS record model: the closed set of
// supported record kinds, the canonical internal name representation, and
// conversion to/from the wire representation used by github.com/miekg/dns.
package record

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// ErrUnsupported is returned when a wire record type falls outside the
// closed set this server understands.
var ErrUnsupported = errors.New("record: unsupported record type")

// ErrInvalid is returned when a RecordValue cannot be parsed into wire data
// for a given RecordType.
var ErrInvalid = errors.New("record: invalid value for type")

// Type is the closed set of record kinds the core resolves directly.
// Anything else is rejected at the boundary with ErrUnsupported.
type Type int

const (
	A Type = iota
	AAAA
	CNAME
	MX
	TXT
	PTR
)

func (t Type) String() string {
	switch t {
	case A:
		return "A"
	case AAAA:
		return "AAAA"
	case CNAME:
		return "CNAME"
	case MX:
		return "MX"
	case TXT:
		return "TXT"
	case PTR:
		return "PTR"
	default:
		return "UNKNOWN"
	}
}

// TypeFromWire maps a github.com/miekg/dns type constant onto the closed
// set. Any wire type outside {A, AAAA, CNAME, MX, TXT, PTR} is Unsupported.
func TypeFromWire(wire uint16) (Type, error) {
	switch wire {
	case dns.TypeA:
		return A, nil
	case dns.TypeAAAA:
		return AAAA, nil
	case dns.TypeCNAME:
		return CNAME, nil
	case dns.TypeMX:
		return MX, nil
	case dns.TypeTXT:
		return TXT, nil
	case dns.TypePTR:
		return PTR, nil
	default:
		return 0, fmt.Errorf("%w: wire type %d", ErrUnsupported, wire)
	}
}

// ToWire is the inverse of TypeFromWire; it is total over the supported set.
func (t Type) ToWire() (uint16, error) {
	switch t {
	case A:
		return dns.TypeA, nil
	case AAAA:
		return dns.TypeAAAA, nil
	case CNAME:
		return dns.TypeCNAME, nil
	case MX:
		return dns.TypeMX, nil
	case TXT:
		return dns.TypeTXT, nil
	case PTR:
		return dns.TypePTR, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, t)
	}
}

// recordNameRegex matches the canonical grammar: an optional wildcard
// prefix, an optional dot-terminated label sequence, and the mandatory
// apex sentinel. It intentionally stays permissive about label alphabet,
// mirroring the original implementation's tolerance for internal labels
// that have already passed through the wire codec's own validation.
var recordNameRegex = regexp.MustCompile(`^(\*\.)?([^\\/:@*]+\.)?@$`)

// Name is the canonical lowercase internal representation of an owner
// name, always ending in the apex sentinel "@".
type Name string

// Apex is the sentinel representing a zone's origin.
const Apex Name = "@"

// ParseName validates and lowercases a user-supplied canonical name
// string. It rejects anything that doesn't match the grammar.
func ParseName(s string) (Name, bool) {
	if !recordNameRegex.MatchString(s) {
		return "", false
	}
	return Name(strings.ToLower(s)), true
}

// NameFromQuery derives the internal name by stripping the zone origin
// suffix (case-insensitive, trailing-dot tolerant) from a wire query name
// and appending the apex sentinel. If query equals the origin exactly,
// the result is the bare apex "@".
func NameFromQuery(zoneOrigin, queryName string) (Name, bool) {
	q := dns.Fqdn(strings.ToLower(queryName))
	origin := dns.Fqdn(strings.ToLower(zoneOrigin))

	if strings.HasSuffix(q, origin) {
		q = q[:len(q)-len(origin)]
	}

	return ParseName(q + "@")
}

// Subdomain returns the name without the trailing apex sentinel, suitable as
// a relative label prefix; the bare apex yields "".
func (n Name) Subdomain() string {
	s := string(n)
	if len(s) > 1 {
		return s[:len(s)-1]
	}
	return ""
}

// IsWildcard reports whether the owner's leftmost label is "*".
func (n Name) IsWildcard() bool {
	return strings.HasPrefix(string(n), "*.")
}

// Value is an opaque per-type textual payload, e.g. "1.2.3.4" for A,
// "10 mail.example.com." for MX, or an arbitrary TXT payload. It only
// becomes typed wire data in the context of a known Type.
type Value string

// txtChunkMax is the maximum length, in bytes, of a single TXT
// character-string per RFC 1035 §3.3.14.
const txtChunkMax = 255

// BuildRR converts the value into a complete dns.RR for the given owner
// name and kind, with the supplied TTL. Any parse failure yields
// ErrInvalid; callers are expected to log and skip the record rather than
// fail the whole response.
func (v Value) BuildRR(owner string, ttl uint32, kind Type) (dns.RR, error) {
	hdr := func(rrtype uint16) dns.RR_Header {
		return dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: rrtype, Class: dns.ClassINET, Ttl: ttl}
	}

	switch kind {
	case A:
		ip := net.ParseIP(string(v)).To4()
		if ip == nil {
			return nil, fmt.Errorf("%w: %q is not a valid IPv4 address", ErrInvalid, v)
		}
		return &dns.A{Hdr: hdr(dns.TypeA), A: ip}, nil

	case AAAA:
		ip := net.ParseIP(string(v)).To16()
		if ip == nil || net.ParseIP(string(v)).To4() != nil {
			return nil, fmt.Errorf("%w: %q is not a valid IPv6 address", ErrInvalid, v)
		}
		return &dns.AAAA{Hdr: hdr(dns.TypeAAAA), AAAA: ip}, nil

	case CNAME:
		target := strings.TrimSpace(string(v))
		if target == "" {
			return nil, fmt.Errorf("%w: empty CNAME target", ErrInvalid)
		}
		return &dns.CNAME{Hdr: hdr(dns.TypeCNAME), Target: dns.Fqdn(target)}, nil

	case PTR:
		target := strings.TrimSpace(string(v))
		if target == "" {
			return nil, fmt.Errorf("%w: empty PTR target", ErrInvalid)
		}
		return &dns.PTR{Hdr: hdr(dns.TypePTR), Ptr: dns.Fqdn(target)}, nil

	case MX:
		fields := strings.Fields(string(v))
		priorityStr, exchange := "0", ""
		if len(fields) > 0 {
			priorityStr = fields[0]
		}
		if len(fields) > 1 {
			exchange = fields[1]
		}
		priority, err := strconv.ParseUint(priorityStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bad MX priority %q", ErrInvalid, priorityStr)
		}
		if exchange == "" {
			return nil, fmt.Errorf("%w: empty MX exchange", ErrInvalid)
		}
		return &dns.MX{Hdr: hdr(dns.TypeMX), Preference: uint16(priority), Mx: dns.Fqdn(exchange)}, nil

	case TXT:
		chunks := chunkTXT(string(v))
		if len(chunks) == 0 {
			return nil, fmt.Errorf("%w: empty TXT value", ErrInvalid)
		}
		return &dns.TXT{Hdr: hdr(dns.TypeTXT), Txt: chunks}, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, kind)
	}
}

// chunkTXT splits s into consecutive substrings of at most txtChunkMax
// bytes, preserving byte order. An empty input yields no chunks.
func chunkTXT(s string) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	for len(s) > 0 {
		n := txtChunkMax
		if n > len(s) {
			n = len(s)
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}
