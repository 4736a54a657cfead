package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/bmatsuo/lmdb-go/lmdb"

	"github.com/astracat-dns/authdns/internal/record"
)

// LMDBStore is the external key-value record store of spec §4.3/§6,
// persisted with LMDB the same way the teacher's internal/cache package
// persists cached messages -- a single named database, keyed by the
// packed (zone, name, type) tuple, opened once at startup.
type LMDBStore struct {
	env *lmdb.Env
	dbi lmdb.DBI
}

// OpenLMDBStore opens (creating if necessary) an LMDB environment at path
// and prepares the "records" database used for record lookups.
func OpenLMDBStore(path string) (*LMDBStore, error) {
	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("store: create lmdb env: %w", err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("store: create lmdb dir %s: %w", path, err)
	}

	if err := env.SetMaxDBs(1); err != nil {
		return nil, fmt.Errorf("store: set max dbs: %w", err)
	}
	if err := env.SetMapSize(1 << 30); err != nil { // 1GB
		return nil, fmt.Errorf("store: set map size: %w", err)
	}
	if err := env.Open(path, 0, 0644); err != nil {
		return nil, fmt.Errorf("store: open lmdb at %s: %w", path, err)
	}

	var dbi lmdb.DBI
	err = env.Update(func(txn *lmdb.Txn) (err error) {
		dbi, err = txn.OpenDBI("records", lmdb.Create)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: open records database: %w", err)
	}

	return &LMDBStore{env: env, dbi: dbi}, nil
}

// Close releases the LMDB environment.
func (s *LMDBStore) Close() error {
	s.env.Close()
	return nil
}

// storeRecordDTO is the JSON-serializable wire form of record.StoreRecord,
// matching the teacher's RecordDTO/ZoneDTO convention of keeping a plain
// serializable shadow type next to the in-memory one.
type storeRecordDTO struct {
	Kind      string   `json:"kind"`
	Values    []string `json:"values"`
	TTL       *uint32  `json:"ttl,omitempty"`
	Regions   *regionsDTO `json:"regions,omitempty"`
	Blackhole []string `json:"blackhole,omitempty"`
}

type regionsDTO struct {
	NNAM []string `json:"nnam,omitempty"`
	SNAM []string `json:"snam,omitempty"`
	NSAM []string `json:"nsam,omitempty"`
	SSAM []string `json:"ssam,omitempty"`
	WEU  []string `json:"weu,omitempty"`
	CEU  []string `json:"ceu,omitempty"`
	EEU  []string `json:"eeu,omitempty"`
	RU   []string `json:"ru,omitempty"`
	ME   []string `json:"me,omitempty"`
	NAF  []string `json:"naf,omitempty"`
	MAF  []string `json:"maf,omitempty"`
	SAF  []string `json:"saf,omitempty"`
	SEAS []string `json:"seas,omitempty"`
	NEAS []string `json:"neas,omitempty"`
	OC   []string `json:"oc,omitempty"`
	IN   []string `json:"in,omitempty"`
}

func recordKey(zone, name string, kind record.Type) []byte {
	return []byte(zone + "\x00" + name + "\x00" + kind.String())
}

// Get implements Store. A missing key yields ErrNotFound; any LMDB or
// decode failure yields ErrBackend and is logged -- the caller treats
// both identically per spec §4.3.
func (s *LMDBStore) Get(zone, name string, kind record.Type) (record.StoreRecord, error) {
	key := recordKey(zone, name, kind)

	var payload []byte
	err := s.env.View(func(txn *lmdb.Txn) error {
		txn.RawRead = true
		v, err := txn.Get(s.dbi, key)
		if err != nil {
			return err
		}
		payload = append([]byte(nil), v...)
		return nil
	})
	if lmdb.IsNotFound(err) {
		return record.StoreRecord{}, ErrNotFound
	}
	if err != nil {
		log.Printf("store: lmdb get failed for %s/%s/%s: %v", zone, name, kind, err)
		return record.StoreRecord{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	var dto storeRecordDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		log.Printf("store: corrupt record for %s/%s/%s: %v", zone, name, kind, err)
		return record.StoreRecord{}, fmt.Errorf("%w: corrupt record: %v", ErrBackend, err)
	}

	return dtoToStoreRecord(dto), nil
}

// Put writes (or overwrites) a record. This is the admin-plane write path
// spec §1 places out of scope for the core, kept here only so tests and
// local tooling can populate an LMDBStore without a separate HTTP API.
func (s *LMDBStore) Put(zone, name string, rec record.StoreRecord) error {
	dto := storeRecordToDTO(rec)
	payload, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}

	key := recordKey(zone, name, rec.Kind)
	return s.env.Update(func(txn *lmdb.Txn) error {
		return txn.Put(s.dbi, key, payload, 0)
	})
}

func storeRecordToDTO(rec record.StoreRecord) storeRecordDTO {
	dto := storeRecordDTO{Kind: rec.Kind.String(), TTL: rec.TTL}
	for _, v := range rec.Values {
		dto.Values = append(dto.Values, string(v))
	}
	if rec.Regions != nil {
		dto.Regions = &regionsDTO{
			NNAM: valuesToStrings(rec.Regions.NNAM), SNAM: valuesToStrings(rec.Regions.SNAM),
			NSAM: valuesToStrings(rec.Regions.NSAM), SSAM: valuesToStrings(rec.Regions.SSAM),
			WEU: valuesToStrings(rec.Regions.WEU), CEU: valuesToStrings(rec.Regions.CEU),
			EEU: valuesToStrings(rec.Regions.EEU), RU: valuesToStrings(rec.Regions.RU),
			ME: valuesToStrings(rec.Regions.ME), NAF: valuesToStrings(rec.Regions.NAF),
			MAF: valuesToStrings(rec.Regions.MAF), SAF: valuesToStrings(rec.Regions.SAF),
			SEAS: valuesToStrings(rec.Regions.SEAS), NEAS: valuesToStrings(rec.Regions.NEAS),
			OC: valuesToStrings(rec.Regions.OC), IN: valuesToStrings(rec.Regions.IN),
		}
	}
	for cc := range rec.Blackhole {
		dto.Blackhole = append(dto.Blackhole, string(cc))
	}
	return dto
}

func dtoToStoreRecord(dto storeRecordDTO) record.StoreRecord {
	rec := record.StoreRecord{TTL: dto.TTL}
	if kind, err := kindFromString(dto.Kind); err == nil {
		rec.Kind = kind
	}
	for _, v := range dto.Values {
		rec.Values = append(rec.Values, record.Value(v))
	}
	if dto.Regions != nil {
		rec.Regions = &record.Regions{
			NNAM: stringsToValues(dto.Regions.NNAM), SNAM: stringsToValues(dto.Regions.SNAM),
			NSAM: stringsToValues(dto.Regions.NSAM), SSAM: stringsToValues(dto.Regions.SSAM),
			WEU: stringsToValues(dto.Regions.WEU), CEU: stringsToValues(dto.Regions.CEU),
			EEU: stringsToValues(dto.Regions.EEU), RU: stringsToValues(dto.Regions.RU),
			ME: stringsToValues(dto.Regions.ME), NAF: stringsToValues(dto.Regions.NAF),
			MAF: stringsToValues(dto.Regions.MAF), SAF: stringsToValues(dto.Regions.SAF),
			SEAS: stringsToValues(dto.Regions.SEAS), NEAS: stringsToValues(dto.Regions.NEAS),
			OC: stringsToValues(dto.Regions.OC), IN: stringsToValues(dto.Regions.IN),
		}
	}
	if len(dto.Blackhole) > 0 {
		rec.Blackhole = make(map[record.CountryCode]struct{}, len(dto.Blackhole))
		for _, cc := range dto.Blackhole {
			rec.Blackhole[record.CountryCode(cc)] = struct{}{}
		}
	}
	return rec
}

func valuesToStrings(vs []record.Value) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func stringsToValues(ss []string) []record.Value {
	if len(ss) == 0 {
		return nil
	}
	out := make([]record.Value, len(ss))
	for i, s := range ss {
		out[i] = record.Value(s)
	}
	return out
}

func kindFromString(s string) (record.Type, error) {
	switch s {
	case "A":
		return record.A, nil
	case "AAAA":
		return record.AAAA, nil
	case "CNAME":
		return record.CNAME, nil
	case "MX":
		return record.MX, nil
	case "TXT":
		return record.TXT, nil
	case "PTR":
		return record.PTR, nil
	default:
		return 0, fmt.Errorf("store: unknown record kind %q", s)
	}
}
