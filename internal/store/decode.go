package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/source"
)

var (
	// ErrUnsupportedFormat is returned when an object is neither JSON nor CSV.
	ErrUnsupportedFormat = errors.New("store: unsupported data format")
	// ErrEmptySource is returned when the data file holds no rows at all.
	ErrEmptySource = errors.New("store: data source is empty")
)

// Format is a record file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the encoding from the extension, then the content type,
// then the first non-space byte.
func DetectFormat(obj *source.Object) (Format, error) {
	switch obj.Ext() {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	switch obj.MediaType() {
	case "application/json", "text/json":
		return FormatJSON, nil
	case "text/csv", "application/csv":
		return FormatCSV, nil
	}
	trimmed := bytes.TrimSpace(obj.Body)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, obj.Name)
}

// Decode parses obj into unvalidated records. Coordinates that are missing or
// malformed decode as NaN so validation can drop them.
func Decode(obj *source.Object) ([]model.PartnershipRecord, error) {
	if len(bytes.TrimSpace(obj.Body)) == 0 {
		return nil, ErrEmptySource
	}
	format, err := DetectFormat(obj)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(obj.Body))
	default:
		return DecodeJSON(obj.Body)
	}
}

// coordinate accepts a JSON number, a numeric string, or null.
type coordinate float64

func (c *coordinate) UnmarshalJSON(b []byte) error {
	*c = coordinate(parseCoordinate(strings.Trim(string(b), `"`)))
	return nil
}

func (c *coordinate) value() float64 {
	if c == nil {
		return math.NaN()
	}
	return float64(*c)
}

type jsonRecord struct {
	Institution string `json:"institution"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Location    *struct {
		Lat *coordinate `json:"lat"`
		Lng *coordinate `json:"lng"`
	} `json:"location"`
	Partnerships []model.PartnershipEntry `json:"partnerships"`
}

// DecodeJSON parses an array of records.
func DecodeJSON(data []byte) ([]model.PartnershipRecord, error) {
	var raw []jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode json records: %w", err)
	}

	out := make([]model.PartnershipRecord, 0, len(raw))
	for _, r := range raw {
		loc := model.LatLng{Lat: math.NaN(), Lng: math.NaN()}
		if r.Location != nil {
			loc = model.LatLng{Lat: r.Location.Lat.value(), Lng: r.Location.Lng.value()}
		}
		out = append(out, model.PartnershipRecord{
			Institution:  strings.TrimSpace(r.Institution),
			Country:      strings.TrimSpace(r.Country),
			City:         strings.TrimSpace(r.City),
			Location:     loc,
			Partnerships: r.Partnerships,
		})
	}
	return out, nil
}

// csvColumns maps accepted header names to their canonical column.
var csvColumns = map[string]string{
	"institution":      "institution",
	"name":             "institution",
	"country":          "country",
	"city":             "city",
	"lat":              "lat",
	"latitude":         "lat",
	"lng":              "lng",
	"lon":              "lng",
	"long":             "lng",
	"longitude":        "lng",
	"type":             "type",
	"partnership_type": "type",
	"description":      "description",
	"program":          "program",
	"in_unit":          "in_unit",
	"inunit":           "in_unit",
	"sponsor":          "in_unit",
	"sponsors":         "in_unit",
	"url":              "url",
	"link":             "url",
}

// DecodeCSV parses one partnership entry per row. Consecutive rows for the
// same institution and location are grouped into a single record.
func DecodeCSV(r io.Reader) ([]model.PartnershipRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySource
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := csvColumns[key]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	if _, ok := index["institution"]; !ok {
		return nil, fmt.Errorf("read csv header: missing institution column")
	}

	var out []model.PartnershipRecord
	var lastKey string
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		institution := get("institution")
		if institution == "" {
			continue
		}
		rec := model.PartnershipRecord{
			Institution: institution,
			Country:     get("country"),
			City:        get("city"),
			Location:    model.LatLng{Lat: parseCoordinate(get("lat")), Lng: parseCoordinate(get("lng"))},
		}
		entry := model.PartnershipEntry{
			Type:        get("type"),
			Description: get("description"),
			Program:     get("program"),
			InUnit:      strings.ReplaceAll(get("in_unit"), `\n`, "\n"),
			URL:         get("url"),
		}

		key := strings.Join([]string{rec.Institution, rec.Country, rec.City, get("lat"), get("lng")}, "\x00")
		if key == lastKey && len(out) > 0 {
			last := &out[len(out)-1]
			last.Partnerships = append(last.Partnerships, entry)
			continue
		}
		rec.Partnerships = []model.PartnershipEntry{entry}
		out = append(out, rec)
		lastKey = key
	}

	return out, nil
}

func parseCoordinate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
