package model

import (
	"math"
	"strings"
)

// LatLng is a precomputed geocode.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite, inside the WGS84 range and
// not the (0,0) pair that blank spreadsheet cells decode to.
func (l LatLng) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return false
	}
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return false
	}
	return l.Lat != 0 || l.Lng != 0
}

// PartnershipEntry is one agreement held with an institution.
type PartnershipEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Program     string `json:"program,omitempty"`
	// InUnit lists the sponsoring departments, one per line.
	InUnit string `json:"inUnit"`
	// URL is empty when the entry has no link.
	URL string `json:"url"`
}

// Sponsors splits InUnit into its trimmed, non-empty lines.
func (e PartnershipEntry) Sponsors() []string {
	lines := strings.Split(strings.ReplaceAll(e.InUnit, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HasLink reports whether the entry should render as an anchor.
func (e PartnershipEntry) HasLink() bool {
	return strings.TrimSpace(e.URL) != ""
}

// PartnershipRecord is one institution with its geocode and agreements.
type PartnershipRecord struct {
	// ID is the record's position in the record store.
	ID           int                `json:"id"`
	Institution  string             `json:"institution"`
	Country      string             `json:"country"`
	City         string             `json:"city,omitempty"`
	Location     LatLng             `json:"location"`
	Partnerships []PartnershipEntry `json:"partnerships"`
}

// LocationLabel renders "City, Country", or just the country when the city is unknown.
func (r PartnershipRecord) LocationLabel() string {
	if r.City == "" {
		return r.Country
	}
	return r.City + ", " + r.Country
}

// WithPartnerships returns a copy of r holding only the given entries.
func (r PartnershipRecord) WithPartnerships(entries []PartnershipEntry) PartnershipRecord {
	r.Partnerships = entries
	return r
}
