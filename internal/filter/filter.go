// Package filter narrows the record store to the records matching the
// dashboard's country, partnership type and sponsor selection.
package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stemsi/partnermap/internal/model"
)

// AllTypes is the partnership type selection that matches every entry.
const AllTypes = "all"

// legacyLabelWidth is the length category labels were truncated to in older
// data exports. A selection equal to a truncated type still matches it.
const legacyLabelWidth = 23

// Selection is the current country/type/sponsor filter.
type Selection struct {
	Country         string `json:"country"`
	PartnershipType string `json:"partnership_type"`
	Sponsor         string `json:"sponsor"`
}

// Normalize maps an empty partnership type to AllTypes.
func (s Selection) Normalize() Selection {
	if s.PartnershipType == "" {
		s.PartnershipType = AllTypes
	}
	return s
}

// IsZero reports whether the selection matches everything.
func (s Selection) IsZero() bool {
	n := s.Normalize()
	return n.Country == "" && n.PartnershipType == AllTypes && n.Sponsor == ""
}

// Key returns a stable, unambiguous encoding of the selection.
func (s Selection) Key() string {
	n := s.Normalize()
	return url.QueryEscape(n.Country) + "|" + url.QueryEscape(n.PartnershipType) + "|" + url.QueryEscape(n.Sponsor)
}

// Values encodes the selection as the dashboard's canonical query parameters,
// omitting defaults.
func (s Selection) Values() url.Values {
	n := s.Normalize()
	v := url.Values{}
	if n.Country != "" {
		v.Set("country", n.Country)
	}
	if n.PartnershipType != AllTypes {
		v.Set("type", n.PartnershipType)
	}
	if n.Sponsor != "" {
		v.Set("sponsor", n.Sponsor)
	}
	return v
}

// FromForm converts the dashboard form query into a selection.
func FromForm(q model.FilterQuery) Selection {
	return Selection{
		Country:         q.Country,
		PartnershipType: q.Type,
		Sponsor:         q.Sponsor,
	}.Normalize()
}

// Result is the filtered record list with the counts shown in the summary line.
type Result struct {
	Records []model.PartnershipRecord `json:"records"`
	Matched int                       `json:"matched"`
	Total   int                       `json:"total"`
}

// Empty reports whether nothing matched; views render a placeholder row.
func (r Result) Empty() bool { return r.Matched == 0 }

// Summary is the "Showing X of Y entries" line.
func (r Result) Summary() string {
	return fmt.Sprintf("Showing %d of %d entries", r.Matched, r.Total)
}

// Apply returns the records matching sel in their original order. Each
// returned record carries only its matching partnership entries. records is
// never modified.
func Apply(records []model.PartnershipRecord, sel Selection) Result {
	sel = sel.Normalize()
	out := make([]model.PartnershipRecord, 0, len(records))

	for _, rec := range records {
		if sel.Country != "" && rec.Country != sel.Country {
			continue
		}
		if entries, ok := matchEntries(rec.Partnerships, sel); ok {
			out = append(out, rec.WithPartnerships(entries))
		}
	}

	return Result{Records: out, Matched: len(out), Total: len(records)}
}

// matchEntries decides whether a record's entries satisfy the type and sponsor
// predicates and returns the entries to display. The predicates are checked
// independently across entries; when no single entry satisfies both, every
// entry satisfying either one is returned.
func matchEntries(entries []model.PartnershipEntry, sel Selection) ([]model.PartnershipEntry, bool) {
	var typeHit, sponsorHit bool
	both := make([]model.PartnershipEntry, 0, len(entries))
	either := make([]model.PartnershipEntry, 0, len(entries))

	for _, e := range entries {
		t := MatchesType(e, sel.PartnershipType)
		s := MatchesSponsor(e, sel.Sponsor)
		typeHit = typeHit || t
		sponsorHit = sponsorHit || s
		if t && s {
			both = append(both, e)
		}
		if t || s {
			either = append(either, e)
		}
	}

	if !typeHit || !sponsorHit {
		return nil, false
	}
	if len(both) > 0 {
		return both, true
	}
	return either, true
}

// MatchesType reports whether the entry's type contains partnershipType, or
// equals it after truncation to the legacy label width.
func MatchesType(e model.PartnershipEntry, partnershipType string) bool {
	if partnershipType == "" || partnershipType == AllTypes {
		return true
	}
	if strings.Contains(e.Type, partnershipType) {
		return true
	}
	return truncate(e.Type, legacyLabelWidth) == partnershipType
}

// MatchesSponsor reports whether any sponsoring department text contains sponsor.
func MatchesSponsor(e model.PartnershipEntry, sponsor string) bool {
	return sponsor == "" || strings.Contains(e.InUnit, sponsor)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CountryCount returns how many records belong to country, matched exactly.
func CountryCount(records []model.PartnershipRecord, country string) int {
	n := 0
	for _, r := range records {
		if r.Country == country {
			n++
		}
	}
	return n
}
