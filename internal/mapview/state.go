package mapview

import (
	"net/url"
	"strconv"

	"github.com/stemsi/partnermap/internal/model"
)

// NoMarker means no marker is active.
const NoMarker = -1

// View is the visible map area.
type View struct {
	Center model.LatLng `json:"center"`
	Zoom   int          `json:"zoom"`
}

// State is the map's interaction state: the active marker, the highlighted
// country and the current view. At most one marker is active.
type State struct {
	View         View   `json:"view"`
	ActiveMarker int    `json:"active_marker"`
	Highlight    string `json:"highlight,omitempty"`
}

// NewState returns the initial state for the given default view.
func NewState(defaults View) State {
	return State{View: defaults, ActiveMarker: NoMarker}
}

// Activate makes id the only active marker.
func (s *State) Activate(id int) {
	if id < 0 {
		s.ActiveMarker = NoMarker
		return
	}
	s.ActiveMarker = id
}

// Deactivate clears the active marker.
func (s *State) Deactivate() { s.ActiveMarker = NoMarker }

// IsActive reports whether id is the active marker.
func (s State) IsActive(id int) bool {
	return s.ActiveMarker != NoMarker && s.ActiveMarker == id
}

// HighlightCountry highlights a country shape.
func (s *State) HighlightCountry(name string) { s.Highlight = name }

// ClearHighlight removes the country highlight.
func (s *State) ClearHighlight() { s.Highlight = "" }

// Reset restores the default center and zoom. Markers, highlight and filters
// are untouched.
func (s *State) Reset(defaults View) { s.View = defaults }

// StateFromQuery rebuilds the state carried in the dashboard URL.
func StateFromQuery(q model.MapQuery, defaults View) State {
	s := NewState(defaults)
	if q.Marker != nil {
		s.Activate(*q.Marker)
	}
	if q.Hover != "" {
		s.HighlightCountry(q.Hover)
	}
	if q.Lat != nil && q.Lng != nil {
		s.View.Center = model.LatLng{Lat: *q.Lat, Lng: *q.Lng}
	}
	if q.Zoom != nil {
		s.View.Zoom = *q.Zoom
	}
	return s
}

// Values encodes the state as query parameters, omitting defaults.
func (s State) Values(defaults View) url.Values {
	v := url.Values{}
	if s.ActiveMarker != NoMarker {
		v.Set("marker", strconv.Itoa(s.ActiveMarker))
	}
	if s.Highlight != "" {
		v.Set("hover", s.Highlight)
	}
	if s.View.Center != defaults.Center {
		v.Set("lat", strconv.FormatFloat(s.View.Center.Lat, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(s.View.Center.Lng, 'f', -1, 64))
	}
	if s.View.Zoom != defaults.Zoom {
		v.Set("zoom", strconv.Itoa(s.View.Zoom))
	}
	return v
}
