package mapview

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/partnermap/internal/model"
)

const countriesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Chile"},
     "geometry": {"type": "Polygon", "coordinates": [[[-75,-56],[-66,-56],[-66,-17],[-75,-17],[-75,-56]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Italy"},
     "geometry": {"type": "Polygon", "coordinates": [[[6,36],[19,36],[19,47],[6,47],[6,36]]]}},
    {"type": "Feature", "properties": {"name": "Chile"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "properties": {"iso": "XX"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
  ]
}`

func testRecords() []model.PartnershipRecord {
	return []model.PartnershipRecord{
		{ID: 0, Institution: "Università di Bologna", Country: "Italy", City: "Bologna", Location: model.LatLng{Lat: 44.49, Lng: 11.34},
			Partnerships: []model.PartnershipEntry{{Type: "Exchange"}}},
		{ID: 1, Institution: "PUC", Country: "Chile", City: "Santiago", Location: model.LatLng{Lat: -33.44, Lng: -70.65},
			Partnerships: []model.PartnershipEntry{{Type: "Study Abroad"}, {Type: "Exchange"}}},
		{ID: 2, Institution: "U. de Chile", Country: "Chile", Location: model.LatLng{Lat: -33.45, Lng: -70.66},
			Partnerships: []model.PartnershipEntry{{Type: "Exchange"}}},
		{ID: 3, Institution: "UCL", Country: "UK", Location: model.LatLng{Lat: 51.52, Lng: -0.13},
			Partnerships: []model.PartnershipEntry{{Type: "Exchange"}}},
	}
}

func TestParseBoundaries(t *testing.T) {
	b, err := ParseBoundaries([]byte(countriesGeoJSON))
	require.NoError(t, err)

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"Chile", "Italy"}, b.Names())
	assert.True(t, b.Has("Italy"))
	assert.False(t, b.Has("italy"))
	assert.Equal(t, []string{"UK"}, b.Unmatched(testRecords()))

	_, err = ParseBoundaries([]byte(`{"type": "FeatureCollection", "features": [`))
	assert.Error(t, err)
}

func TestCountryCount(t *testing.T) {
	b, err := ParseBoundaries([]byte(countriesGeoJSON))
	require.NoError(t, err)
	records := testRecords()

	assert.Equal(t, 2, CountryCount(b, records, "Chile"))
	assert.Equal(t, 1, CountryCount(b, records, "Italy"))
	// The record exists but no polygon joins to it.
	assert.Equal(t, 0, CountryCount(b, records, "UK"))
	assert.Equal(t, 0, CountryCount(EmptyBoundaries(), records, "Chile"))
}

func TestMarkers_SingleActive(t *testing.T) {
	st := NewState(View{Zoom: 2})
	st.Activate(1)
	st.Activate(2)

	fc := Markers(testRecords(), st)
	require.Len(t, fc.Features, 4)

	active := 0
	for _, f := range fc.Features {
		if f.Properties["active"].(bool) {
			active++
			assert.Equal(t, 2, f.Properties["id"])
			assert.Equal(t, IconActive, f.Properties["icon"])
		} else {
			assert.Equal(t, IconDefault, f.Properties["icon"])
		}
	}
	assert.Equal(t, 1, active)

	pt, ok := fc.Features[1].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-70.65, -33.44}, pt)
	assert.Equal(t, 2, fc.Features[1].Properties["partnerships"])
}

func TestCountries_CountsAndHighlight(t *testing.T) {
	b, err := ParseBoundaries([]byte(countriesGeoJSON))
	require.NoError(t, err)

	st := NewState(View{})
	st.HighlightCountry("Chile")
	fc := Countries(b, testRecords(), st)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, "Chile", fc.Features[0].Properties["name"])
	assert.Equal(t, 2, fc.Features[0].Properties["count"])
	assert.Equal(t, true, fc.Features[0].Properties["highlighted"])
	assert.Equal(t, 1, fc.Features[1].Properties["count"])
	assert.Equal(t, false, fc.Features[1].Properties["highlighted"])

	st.ClearHighlight()
	fc = Countries(b, testRecords(), st)
	assert.Equal(t, false, fc.Features[0].Properties["highlighted"])

	// Source features are left as parsed.
	_, annotated := b.byName["Chile"].Properties["count"]
	assert.False(t, annotated)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestState_Transitions(t *testing.T) {
	defaults := View{Center: model.LatLng{Lat: 20, Lng: 0}, Zoom: 2}
	st := NewState(defaults)
	assert.Equal(t, NoMarker, st.ActiveMarker)
	assert.False(t, st.IsActive(0))

	st.Activate(3)
	assert.True(t, st.IsActive(3))
	st.Activate(3)
	assert.True(t, st.IsActive(3))
	st.Deactivate()
	assert.False(t, st.IsActive(3))

	st.Activate(1)
	st.HighlightCountry("Chile")
	st.View = View{Center: model.LatLng{Lat: -33, Lng: -70}, Zoom: 6}
	st.Reset(defaults)
	assert.Equal(t, defaults, st.View)
	assert.True(t, st.IsActive(1), "reset keeps the active marker")
	assert.Equal(t, "Chile", st.Highlight, "reset keeps the highlight")
}

func TestStateQueryRoundTrip(t *testing.T) {
	defaults := View{Center: model.LatLng{Lat: 20, Lng: 0}, Zoom: 2}

	assert.Empty(t, NewState(defaults).Values(defaults))

	marker, lat, lng, zoom := 4, -33.5, -70.25, 5
	st := StateFromQuery(model.MapQuery{Marker: &marker, Hover: "Chile", Lat: &lat, Lng: &lng, Zoom: &zoom}, defaults)
	assert.Equal(t, 4, st.ActiveMarker)
	assert.Equal(t, "Chile", st.Highlight)
	assert.Equal(t, View{Center: model.LatLng{Lat: lat, Lng: lng}, Zoom: 5}, st.View)

	v := st.Values(defaults)
	assert.Equal(t, "4", v.Get("marker"))
	assert.Equal(t, "Chile", v.Get("hover"))
	assert.Equal(t, "-33.5", v.Get("lat"))
	assert.Equal(t, "-70.25", v.Get("lng"))
	assert.Equal(t, "5", v.Get("zoom"))

	// A lone latitude is ignored.
	st = StateFromQuery(model.MapQuery{Lat: &lat}, defaults)
	assert.Equal(t, defaults, st.View)
}
