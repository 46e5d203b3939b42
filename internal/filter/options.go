package filter

import (
	"sort"

	"github.com/stemsi/partnermap/internal/model"
)

// Options are the distinct values offered by the dashboard dropdowns.
type Options struct {
	Countries []string `json:"countries"`
	Types     []string `json:"types"`
	Sponsors  []string `json:"sponsors"`
}

// BuildOptions collects the sorted distinct countries, partnership types and
// sponsoring departments present in records.
func BuildOptions(records []model.PartnershipRecord) Options {
	countries := map[string]struct{}{}
	types := map[string]struct{}{}
	sponsors := map[string]struct{}{}

	for _, r := range records {
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
		for _, e := range r.Partnerships {
			if e.Type != "" {
				types[e.Type] = struct{}{}
			}
			for _, s := range e.Sponsors() {
				sponsors[s] = struct{}{}
			}
		}
	}

	return Options{
		Countries: sortedKeys(countries),
		Types:     sortedKeys(types),
		Sponsors:  sortedKeys(sponsors),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
