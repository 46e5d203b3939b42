// Package mapview builds the map layers of the dashboard: one polygon per
// country and one marker per institution, joined to the records by exact
// country name.
package mapview

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/stemsi/partnermap/internal/model"
)

// nameProperties are the feature properties tried, in order, for a country's
// canonical name.
var nameProperties = []string{"name", "ADMIN", "NAME"}

// Boundaries are the country polygons keyed by canonical name.
type Boundaries struct {
	features []*geojson.Feature
	byName   map[string]*geojson.Feature
}

// EmptyBoundaries returns a geometry set with no countries.
func EmptyBoundaries() *Boundaries {
	return &Boundaries{byName: map[string]*geojson.Feature{}}
}

// ParseBoundaries reads a GeoJSON FeatureCollection. Features without a name
// are skipped; the first feature wins when names repeat.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode country boundaries: %w", err)
	}

	b := EmptyBoundaries()
	for _, f := range fc.Features {
		name := featureName(f)
		if name == "" {
			continue
		}
		if _, dup := b.byName[name]; dup {
			continue
		}
		b.byName[name] = f
		b.features = append(b.features, f)
	}
	return b, nil
}

func featureName(f *geojson.Feature) string {
	for _, key := range nameProperties {
		if v := f.Properties.MustString(key, ""); v != "" {
			return v
		}
	}
	return ""
}

// Len returns the number of countries.
func (b *Boundaries) Len() int { return len(b.features) }

// Has reports whether a polygon exists for name.
func (b *Boundaries) Has(name string) bool {
	_, ok := b.byName[name]
	return ok
}

// Names returns the country names in source order.
func (b *Boundaries) Names() []string {
	out := make([]string, 0, len(b.features))
	for _, f := range b.features {
		out = append(out, featureName(f))
	}
	return out
}

// Unmatched lists the record countries that have no polygon. Such records
// are never highlighted or counted on the map.
func (b *Boundaries) Unmatched(records []model.PartnershipRecord) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		if !b.Has(r.Country) {
			seen[r.Country] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
