// Package table flattens records into grid rows and applies the grid's
// per-column search and paging.
package table

import (
	"strings"

	"github.com/stemsi/partnermap/internal/model"
)

// Column names a table column.
type Column string

const (
	ColName        Column = "name"
	ColCity        Column = "city"
	ColCountry     Column = "country"
	ColDescription Column = "description"
	ColLink        Column = "link"
)

// Columns lists the table columns in display order.
var Columns = []Column{ColName, ColCity, ColCountry, ColDescription, ColLink}

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Row is one partnership entry of one record.
type Row struct {
	RecordID    int    `json:"record_id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Value returns the row's text in column c.
func (r Row) Value(c Column) string {
	switch c {
	case ColName:
		return r.Name
	case ColCity:
		return r.City
	case ColCountry:
		return r.Country
	case ColDescription:
		return r.Description
	case ColLink:
		return r.Link
	}
	return ""
}

// Rows flattens records into one row per partnership entry, in order.
func Rows(records []model.PartnershipRecord) []Row {
	var rows []Row
	for _, rec := range records {
		for _, e := range rec.Partnerships {
			rows = append(rows, Row{
				RecordID:    rec.ID,
				Name:        rec.Institution,
				City:        rec.City,
				Country:     rec.Country,
				Description: e.Description,
				Link:        e.URL,
			})
		}
	}
	return rows
}

// Filter is a per-column search term. Empty terms are ignored.
type Filter map[Column]string

// FromQuery builds the column filter from the table query.
func FromQuery(q model.TableQuery) Filter {
	return Filter{
		ColName:        q.Name,
		ColCity:        q.City,
		ColCountry:     q.Country,
		ColDescription: q.Description,
		ColLink:        q.Link,
	}
}

// Active reports whether any column has a search term.
func (f Filter) Active() bool {
	for _, term := range f {
		if strings.TrimSpace(term) != "" {
			return true
		}
	}
	return false
}

// Apply keeps the rows whose every searched column contains its term,
// ignoring case.
func Apply(rows []Row, f Filter) []Row {
	terms := make(map[Column]string, len(f))
	for c, term := range f {
		if t := strings.TrimSpace(term); t != "" {
			terms[c] = strings.ToLower(t)
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matches(r, terms) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r Row, terms map[Column]string) bool {
	for c, term := range terms {
		if !strings.Contains(strings.ToLower(r.Value(c)), term) {
			return false
		}
	}
	return true
}

// Page is one page of rows.
type Page struct {
	Rows       []Row `json:"rows"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalItems int   `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Empty reports whether no row survived filtering.
func (p Page) Empty() bool { return p.TotalItems == 0 }

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Paginate slices rows into the requested page. Out-of-range pages are
// clamped to the last page.
func Paginate(rows []Row, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}

	total := len(rows)
	totalPages := (total + perPage - 1) / perPage
	switch {
	case totalPages == 0:
		page = 1
	case page > totalPages:
		page = totalPages
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page{
		Rows:       append([]Row{}, rows[start:end]...),
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
