package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/partnermap/internal/model"
)

func records() []model.PartnershipRecord {
	return []model.PartnershipRecord{
		{ID: 0, Institution: "Università di Bologna", Country: "Italy", City: "Bologna",
			Partnerships: []model.PartnershipEntry{{Description: "Semester exchange"}}},
		{ID: 1, Institution: "PUC", Country: "Chile", City: "Santiago",
			Partnerships: []model.PartnershipEntry{
				{Description: "Summer program"},
				{Description: "Faculty-led", URL: "https://x.edu"},
			}},
	}
}

func TestRows_FlattensEntries(t *testing.T) {
	rows := Rows(records())
	require.Len(t, rows, 3)
	assert.Equal(t, Row{RecordID: 1, Name: "PUC", City: "Santiago", Country: "Chile", Description: "Faculty-led", Link: "https://x.edu"}, rows[2])
	assert.Equal(t, "https://x.edu", rows[2].Value(ColLink))
	assert.Equal(t, "", rows[2].Value(Column("unknown")))
}

func TestApply_ColumnsAreANDed(t *testing.T) {
	rows := Rows(records())

	got := Apply(rows, Filter{ColCountry: "chi"})
	assert.Len(t, got, 2)

	got = Apply(rows, Filter{ColCountry: "Chile", ColDescription: "faculty"})
	require.Len(t, got, 1)
	assert.Equal(t, "Faculty-led", got[0].Description)

	got = Apply(rows, Filter{ColCountry: "Italy", ColDescription: "faculty"})
	assert.Empty(t, got)

	assert.Len(t, Apply(rows, Filter{ColName: "  "}), 3)
	assert.False(t, Filter{ColName: " "}.Active())
	assert.True(t, Filter{ColLink: "x.edu"}.Active())
}

func TestFromQuery(t *testing.T) {
	f := FromQuery(model.TableQuery{Country: "Chile", Link: "edu"})
	assert.Equal(t, "Chile", f[ColCountry])
	assert.Equal(t, "edu", f[ColLink])
	assert.Len(t, Apply(Rows(records()), f), 1)
}

func TestPaginate(t *testing.T) {
	var rows []Row
	for i := 0; i < 25; i++ {
		rows = append(rows, Row{RecordID: i})
	}

	p := Paginate(rows, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 25, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)
	assert.Len(t, p.Rows, 10)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p = Paginate(rows, 3, 10)
	assert.Len(t, p.Rows, 5)
	assert.Equal(t, 20, p.Rows[0].RecordID)
	assert.False(t, p.HasNext())

	p = Paginate(rows, 9, 10)
	assert.Equal(t, 3, p.Page)

	p = Paginate(rows, 1, 1000)
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Len(t, p.Rows, 25)

	p = Paginate(nil, 2, 10)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Rows)
	assert.NotNil(t, p.Rows)
	assert.Equal(t, 0, p.TotalPages)
}
