// Package handler implements the resolution core: request dispatch,
// authority selection, the layered local/store/wildcard lookup, and
// response assembly. It is the single largest component and the one the
// rest of the server exists to drive.
package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/astracat-dns/authdns/internal/authority"
	"github.com/astracat-dns/authdns/internal/logging"
	"github.com/astracat-dns/authdns/internal/record"
	"github.com/astracat-dns/authdns/internal/store"
)

// Recorder receives per-query observability events. It is satisfied by
// *metrics.Metrics; handler stays independent of the metrics package by
// depending only on this narrow interface, the same shape the store
// package uses for its own Recorder.
type Recorder interface {
	RecordQuery(qtype string)
	RecordResponse(rcode string)
	ObserveLatency(d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordQuery(string)         {}
func (noopRecorder) RecordResponse(string)      {}
func (noopRecorder) ObserveLatency(time.Duration) {}

// Handler is the resolution core. It holds no per-request state; Handle is
// safe for concurrent invocation from multiple goroutines, since the
// authority table is read-only after startup and each Authority guards its
// own fields with an RWMutex.
type Handler struct {
	table      *authority.Table
	store      store.Store
	defaultTTL uint32
	log        logging.Logger
	metrics    Recorder
}

// New builds a Handler over table and backing, using defaultTTL for any
// store record that doesn't carry its own TTL.
func New(table *authority.Table, backing store.Store, defaultTTL uint32) *Handler {
	return &Handler{
		table:      table,
		store:      backing,
		defaultTTL: defaultTTL,
		log:        logging.Default,
		metrics:    noopRecorder{},
	}
}

// SetLogger overrides the default logger.
func (h *Handler) SetLogger(l logging.Logger) {
	if l != nil {
		h.log = l
	}
}

// SetRecorder attaches a metrics Recorder; calling it is optional.
func (h *Handler) SetRecorder(r Recorder) {
	if r != nil {
		h.metrics = r
	}
}

// Handle implements the full request dispatch of spec §4.4.1: a decoded
// query in, an assembled response out. It never returns an error -- every
// request produces a response message, per §4.4.6.
func (h *Handler) Handle(req *dns.Msg) *dns.Msg {
	start := time.Now()

	resp := new(dns.Msg)
	resp.Id = req.Id
	resp.Response = true
	resp.Question = req.Question

	if req.Response {
		h.log.Warnf("handler: received a message with the response bit set, id=%d", req.Id)
		resp.Opcode = req.Opcode
		resp.Rcode = dns.RcodeNotImplemented
		h.metrics.RecordResponse(dns.RcodeToString[resp.Rcode])
		return resp
	}

	if req.Opcode != dns.OpcodeQuery {
		resp.Opcode = req.Opcode
		resp.Rcode = dns.RcodeNotImplemented
		h.metrics.RecordResponse(dns.RcodeToString[resp.Rcode])
		return resp
	}
	resp.Opcode = dns.OpcodeQuery

	var anyAuthority bool
	rcode := dns.RcodeSuccess
	for _, q := range req.Question {
		h.metrics.RecordQuery(dns.TypeToString[q.Qtype])

		answers, authSection, qRcode, matched := h.resolveQuestion(q)
		resp.Answer = append(resp.Answer, answers...)
		resp.Ns = append(resp.Ns, authSection...)
		if matched {
			anyAuthority = true
		}
		// The response code reflects the last query's outcome; this is an
		// explicit, documented choice among two defensible readings of
		// multi-question handling, not an accident of loop order.
		rcode = qRcode
	}

	resp.Authoritative = anyAuthority
	resp.Rcode = rcode
	h.metrics.RecordResponse(dns.RcodeToString[rcode])
	h.metrics.ObserveLatency(time.Since(start))
	return resp
}

// resolveQuestion runs the layered lookup of spec §4.4.3 for a single
// question and returns its answers, its authority-section records (NS on a
// positive answer, SOA on a negative one), its response code, and whether
// an authority matched at all.
func (h *Handler) resolveQuestion(q dns.Question) (answers []dns.RR, authSection []dns.RR, rcode int, matched bool) {
	auth, ok := h.table.Find(q.Name)
	if !ok {
		return nil, nil, dns.RcodeNameError, false
	}

	local := auth.Search(q.Name, q.Qtype)
	if local.Outcome == authority.Records && len(local.Records) > 0 {
		return local.Records, auth.NS(), dns.RcodeSuccess, true
	}

	if answers := h.storeLookup(auth.Origin(), q.Name, q.Qtype, q.Name); len(answers) > 0 {
		return answers, auth.NS(), dns.RcodeSuccess, true
	}

	if wildcardWire, ok := wildcardName(q.Name, auth.Origin()); ok {
		if answers := h.storeLookup(auth.Origin(), wildcardWire, q.Qtype, q.Name); len(answers) > 0 {
			return answers, auth.NS(), dns.RcodeSuccess, true
		}
	}

	switch local.Outcome {
	case authority.NoName:
		rcode = dns.RcodeNameError
	case authority.NameExists:
		rcode = dns.RcodeSuccess
	default:
		// Records with an empty slice, or any other outcome, is the
		// invariant violation spec §4.4.3/§7 calls out: it should never
		// reach here. Log and degrade to NODATA rather than propagate it.
		h.log.Errorf("handler: local search for %s returned Records with no records", q.Name)
		rcode = dns.RcodeSuccess
	}
	return nil, auth.SOA(), rcode, true
}

// storeLookup projects (effectiveName, qtype) onto the internal record
// model under zone, fetches the exact-name records, and -- for non-CNAME
// queries -- appends a CNAME hint at the same name. All returned records
// are tagged with ownerName, the client's original queried name, never the
// effective (possibly wildcard) lookup name.
func (h *Handler) storeLookup(zone, effectiveName string, qtype uint16, ownerName string) []dns.RR {
	qkind, err := record.TypeFromWire(qtype)
	if err != nil {
		// Unsupported wire type: nothing this store can ever hold for it.
		return nil
	}

	recordName, ok := record.NameFromQuery(zone, effectiveName)
	if !ok {
		return nil
	}

	var out []dns.RR
	out = append(out, h.fetch(zone, recordName, qkind, ownerName)...)

	if qkind != record.CNAME {
		out = append(out, h.fetch(zone, recordName, record.CNAME, ownerName)...)
	}

	return out
}

// fetch reads a single (zone, name, kind) triple from the store and
// expands its values into wire records. Store misses and backend errors
// both yield an empty slice, falling through to the next layer; a backend
// error is additionally logged, matching spec §4.3/§7.
func (h *Handler) fetch(zone string, name record.Name, kind record.Type, ownerName string) []dns.RR {
	rec, err := h.store.Get(zone, string(name), kind)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warnf("handler: store backend error for %s/%s/%s: %v", zone, name, kind, err)
		}
		return nil
	}

	ttl := h.defaultTTL
	if rec.TTL != nil {
		ttl = *rec.TTL
	}

	var out []dns.RR
	for _, v := range rec.Values {
		rr, err := v.BuildRR(ownerName, ttl, kind)
		if err != nil {
			h.log.Warnf("handler: skipping invalid %s value %q at %s: %v", kind, v, name, err)
			continue
		}
		out = append(out, rr)
	}
	return out
}

// wildcardName derives the "*.parent" wire name spec §4.4.3 step 3 and §9
// describe, matching only a query name's immediate parent label within the
// zone -- never an ancestor further up, per RFC 4592 §2.1. It reports false
// when the query name has no parent left inside the zone (the apex itself,
// or a name with no labels to strip).
func wildcardName(queryName, origin string) (string, bool) {
	name := dns.Fqdn(strings.ToLower(queryName))
	idx := strings.IndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return "", false
	}
	parent := name[idx+1:]
	if !dns.IsSubDomain(dns.Fqdn(strings.ToLower(origin)), parent) {
		return "", false
	}

	wildcard := "*." + parent
	if wildcard == name {
		return "", false
	}
	return wildcard, true
}
