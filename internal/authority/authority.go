// Package authority implements the per-zone in-memory container of SOA/NS
// records (the "local record set" of spec §3) and the authority table used
// for longest-suffix zone selection.
package authority

import (
	"log"
	"strings"
	"sync"

	"github.com/miekg/dns"
)

// LookupOutcome tags the result of a local (SOA/NS-only) search, matching
// spec §3's AuthLookup variant.
type LookupOutcome int

const (
	// NoName means no owner name in this zone matches the query at all.
	NoName LookupOutcome = iota
	// NameExists means the owner name is known locally but carries no
	// records of the requested type.
	NameExists
	// Records means one or more matching local records were found.
	Records
)

// AuthLookup is the result of Authority.Search.
type AuthLookup struct {
	Outcome LookupOutcome
	Records []dns.RR
}

// SOAParams are the configured SOA timer/identity fields for a zone, per
// spec §4.2 and the dns.soa_* configuration keys of spec §6.
type SOAParams struct {
	Master      string
	Responsible string
	Serial      uint32
	Refresh     uint32
	Retry       uint32
	Expire      uint32
	TTL         uint32
}

// defaultSerial is used when a zone's SOA serial is left unconfigured,
// matching the original implementation's SERIAL_DEFAULT.
const defaultSerial = 1

// Authority is the per-zone container of SOA/NS records. It holds no
// operator-managed records -- those live only in the external store. An
// Authority is built once at startup and is safe for concurrent read
// access; the embedded RWMutex leaves room for an (unimplemented) dynamic
// update path to take a writer lock.
type Authority struct {
	mu     sync.RWMutex
	origin string // FQDN, always ends with "."

	soa dns.RR
	ns  []dns.RR
}

// New constructs an Authority for originFQDN, prepopulating its local
// record set with one SOA record (serial defaults to 1 when unset) and one
// NS record per nameserver target.
func New(originFQDN string, soa SOAParams, nameservers []string) *Authority {
	origin := dns.Fqdn(strings.ToLower(originFQDN))

	serial := soa.Serial
	if serial == 0 {
		serial = defaultSerial
	}

	a := &Authority{origin: origin}

	a.soa = &dns.SOA{
		Hdr:     dns.RR_Header{Name: origin, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: soa.TTL},
		Ns:      dns.Fqdn(soa.Master),
		Mbox:    dns.Fqdn(soa.Responsible),
		Serial:  serial,
		Refresh: soa.Refresh,
		Retry:   soa.Retry,
		Expire:  soa.Expire,
		Minttl:  soa.TTL,
	}

	for _, target := range nameservers {
		a.ns = append(a.ns, &dns.NS{
			Hdr: dns.RR_Header{Name: origin, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: soa.TTL},
			Ns:  dns.Fqdn(target),
		})
	}

	return a
}

// Origin returns the zone's apex name, FQDN form.
func (a *Authority) Origin() string {
	return a.origin
}

// Search consults only the local (SOA/NS) record set for a query.
//
// The local record set holds nothing but the apex's SOA/NS, so it cannot
// by itself tell whether some other owner name in the zone has data --
// that question is only answerable by the store. A name can only reach
// this method after the handler has already matched it to this zone by
// longest-suffix selection, which means it is always in-zone. We resolve
// the NoName/NameExists distinction conservatively: any in-zone name is
// treated as NameExists (deferring to the store/wildcard layers for
// actual data, and to NODATA rather than NXDOMAIN when they come up
// empty), and only requested types at the apex that have no configured
// record are further distinguished into Records vs NameExists. NoName is
// reserved for the defensive case of a name outside the zone reaching
// this method by mistake.
func (a *Authority) Search(qname string, qtype uint16) AuthLookup {
	a.mu.RLock()
	defer a.mu.RUnlock()

	name := dns.Fqdn(strings.ToLower(qname))
	if !dns.IsSubDomain(a.origin, name) {
		return AuthLookup{Outcome: NoName}
	}
	if name != a.origin {
		return AuthLookup{Outcome: NameExists}
	}

	switch qtype {
	case dns.TypeSOA:
		if a.soa == nil {
			return AuthLookup{Outcome: NameExists}
		}
		return AuthLookup{Outcome: Records, Records: []dns.RR{a.soa}}
	case dns.TypeNS:
		if len(a.ns) == 0 {
			return AuthLookup{Outcome: NameExists}
		}
		return AuthLookup{Outcome: Records, Records: append([]dns.RR(nil), a.ns...)}
	default:
		return AuthLookup{Outcome: NameExists}
	}
}

// SOA returns the zone's SOA record, or nil if unconfigured -- a
// misconfiguration the caller should warn about.
func (a *Authority) SOA() []dns.RR {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.soa == nil {
		log.Printf("authority: zone %s has no SOA record configured", a.origin)
		return nil
	}
	return []dns.RR{a.soa}
}

// NS returns the zone's NS records, or nil if unconfigured -- a
// misconfiguration the caller should warn about.
func (a *Authority) NS() []dns.RR {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.ns) == 0 {
		log.Printf("authority: zone %s has no NS records configured", a.origin)
		return nil
	}
	return append([]dns.RR(nil), a.ns...)
}

// Table is the startup-built, read-only-after-construction map from zone
// apex name to Authority. No lock is needed for the table itself; it is
// never mutated during serving.
type Table struct {
	zones map[string]*Authority // key: FQDN origin, lowercased
}

// NewTable builds an empty authority table.
func NewTable() *Table {
	return &Table{zones: make(map[string]*Authority)}
}

// Insert adds an authority to the table, keyed by its origin.
func (t *Table) Insert(a *Authority) {
	t.zones[a.Origin()] = a
}

// Find performs longest-suffix zone selection: the queried name is tested
// against the table, and failing an exact match, one leading label is
// iteratively stripped until the root is reached. This mirrors the
// original recursive base_name() walk rather than a full suffix scan, so
// the cost is bounded by the query's label count, not the number of
// configured zones.
func (t *Table) Find(qname string) (*Authority, bool) {
	name := dns.Fqdn(strings.ToLower(qname))

	for {
		if a, ok := t.zones[name]; ok {
			return a, true
		}

		if name == "." {
			return nil, false
		}

		name = parentName(name)
	}
}

// parentName strips the leftmost label from an FQDN, returning "." once
// there is nothing left to strip.
func parentName(name string) string {
	idx := strings.IndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return "."
	}
	return name[idx+1:]
}
