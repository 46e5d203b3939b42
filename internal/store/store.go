// Package store holds the immutable, in-memory partnership record list the
// dashboard is rendered from. It is loaded once at startup and never changes.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/stemsi/partnermap/internal/model"
)

// LoadStats summarises what validation kept and dropped.
type LoadStats struct {
	Rows             int `json:"rows"`
	Loaded           int `json:"loaded"`
	RejectedLocation int `json:"rejected_location"`
	RejectedEmpty    int `json:"rejected_empty"`
}

// Rejected is the total number of dropped records.
func (s LoadStats) Rejected() int { return s.RejectedLocation + s.RejectedEmpty }

// Store is a read-only record list.
type Store struct {
	records []model.PartnershipRecord
	version string
	stats   LoadStats
}

// Empty returns a store with no records, used when loading fails.
func Empty() *Store {
	return &Store{records: []model.PartnershipRecord{}, version: "empty"}
}

// New validates raw records and builds a store. Records without usable
// coordinates or without any partnership entry are dropped. Kept records are
// renumbered by their position.
func New(raw []model.PartnershipRecord) *Store {
	stats := LoadStats{Rows: len(raw)}
	records := make([]model.PartnershipRecord, 0, len(raw))

	for _, r := range raw {
		if !r.Location.Valid() {
			stats.RejectedLocation++
			continue
		}
		entries := make([]model.PartnershipEntry, 0, len(r.Partnerships))
		for _, e := range r.Partnerships {
			e.Type = strings.TrimSpace(e.Type)
			e.URL = strings.TrimSpace(e.URL)
			entries = append(entries, e)
		}
		if len(entries) == 0 {
			stats.RejectedEmpty++
			continue
		}
		r.ID = len(records)
		r.Partnerships = entries
		records = append(records, r)
	}
	stats.Loaded = len(records)

	return &Store{records: records, version: fingerprint(records), stats: stats}
}

// All returns the records in store order. The returned slice is a copy; the
// records' entry slices are shared and must be treated as read-only.
func (s *Store) All() []model.PartnershipRecord {
	out := make([]model.PartnershipRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given ID.
func (s *Store) Get(id int) (model.PartnershipRecord, bool) {
	if id < 0 || id >= len(s.records) {
		return model.PartnershipRecord{}, false
	}
	return s.records[id], true
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Version is a content hash of the records; it namespaces cache keys.
func (s *Store) Version() string { return s.version }

// Stats returns the load statistics.
func (s *Store) Stats() LoadStats { return s.stats }

func fingerprint(records []model.PartnershipRecord) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(records)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
