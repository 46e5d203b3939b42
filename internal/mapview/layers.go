package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/stemsi/partnermap/internal/filter"
	"github.com/stemsi/partnermap/internal/model"
)

// Marker icons.
const (
	IconDefault = "default"
	IconActive  = "active"
)

// Markers returns one point feature per record. The active marker carries
// the active icon; every other marker the default one.
func Markers(records []model.PartnershipRecord, st State) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(orb.Point{r.Location.Lng, r.Location.Lat})
		f.ID = r.ID
		active := st.IsActive(r.ID)
		icon := IconDefault
		if active {
			icon = IconActive
		}
		f.Properties["id"] = r.ID
		f.Properties["institution"] = r.Institution
		f.Properties["country"] = r.Country
		f.Properties["city"] = r.City
		f.Properties["partnerships"] = len(r.Partnerships)
		f.Properties["active"] = active
		f.Properties["icon"] = icon
		fc.Append(f)
	}
	return fc
}

// Countries returns the country polygons annotated with the number of
// records in each country and whether the country is highlighted. The
// boundary features themselves are not modified.
func Countries(b *Boundaries, records []model.PartnershipRecord, st State) *geojson.FeatureCollection {
	counts := make(map[string]int, b.Len())
	for _, r := range records {
		if b.Has(r.Country) {
			counts[r.Country]++
		}
	}

	fc := geojson.NewFeatureCollection()
	for _, src := range b.features {
		name := featureName(src)
		f := geojson.NewFeature(src.Geometry)
		f.ID = name
		f.Properties["name"] = name
		f.Properties["count"] = counts[name]
		f.Properties["highlighted"] = st.Highlight != "" && st.Highlight == name
		fc.Append(f)
	}
	return fc
}

// CountryCount returns the number of records for the clicked country. A
// country without a polygon has nothing to click and counts zero.
func CountryCount(b *Boundaries, records []model.PartnershipRecord, name string) int {
	if !b.Has(name) {
		return 0
	}
	return filter.CountryCount(records, name)
}
