package detail

import (
	"bytes"
	"html/template"

	"github.com/stemsi/partnermap/internal/model"
)

// CustomizedStudyAbroad is the partnership type whose entries show the
// program name next to the description.
const CustomizedStudyAbroad = "Customized Study Abroad"

// EntryView is one partnership entry prepared for display.
type EntryView struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Program     string   `json:"program,omitempty"`
	ShowProgram bool     `json:"show_program"`
	Sponsors    []string `json:"sponsors"`
	// Link is empty when the entry renders as plain text.
	Link string `json:"link,omitempty"`
}

// Panel is the detail panel for one record.
type Panel struct {
	ID          int         `json:"id"`
	Institution string      `json:"institution"`
	Location    string      `json:"location"`
	Entries     []EntryView `json:"entries"`
}

// NewEntryView applies the presentation rule: Customized Study Abroad
// entries show description and program, every other type the description
// only. A URL wraps the content in a link.
func NewEntryView(e model.PartnershipEntry) EntryView {
	v := EntryView{
		Type:        e.Type,
		Description: e.Description,
		Sponsors:    e.Sponsors(),
	}
	if e.Type == CustomizedStudyAbroad {
		v.Program = e.Program
		v.ShowProgram = true
	}
	if e.HasLink() {
		v.Link = e.URL
	}
	return v
}

// Render builds the panel for rec.
func Render(rec model.PartnershipRecord) Panel {
	entries := make([]EntryView, 0, len(rec.Partnerships))
	for _, e := range rec.Partnerships {
		entries = append(entries, NewEntryView(e))
	}
	return Panel{
		ID:          rec.ID,
		Institution: rec.Institution,
		Location:    rec.LocationLabel(),
		Entries:     entries,
	}
}

var entryTemplate = template.Must(template.New("entry").Parse(
	`{{define "content"}}<span class="entry-type">{{.Type}}</span>: <span class="entry-description">{{.Description}}</span>` +
		`{{if .ShowProgram}} <span class="entry-program">Program: {{.Program}}</span>{{end}}{{end}}` +
		`<li class="entry">{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener">{{template "content" .}}</a>` +
		`{{else}}{{template "content" .}}{{end}}` +
		`{{if .Sponsors}}<ul class="sponsors">{{range .Sponsors}}<li>{{.}}</li>{{end}}</ul>{{end}}</li>`))

// HTML renders the entry as a list item.
func (v EntryView) HTML() template.HTML {
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, v); err != nil {
		return template.HTML(template.HTMLEscapeString(v.Description))
	}
	return template.HTML(buf.String())
}
