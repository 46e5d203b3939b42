package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/partnermap/internal/model"
)

// PartnershipRepository reads and replaces the partnership tables.
type PartnershipRepository struct {
	pool *pgxpool.Pool
}

func NewPartnershipRepository(pool *pgxpool.Pool) *PartnershipRepository {
	return &PartnershipRepository{pool: pool}
}

// ListRecords returns every institution with its entries, in position
// order. Missing coordinates come back as NaN so the store rejects them.
func (r *PartnershipRepository) ListRecords(ctx context.Context) ([]model.PartnershipRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.institution, i.country, i.city, i.lat, i.lng,
		       e.type, e.description, e.program, e.in_unit, e.url
		FROM institutions i
		LEFT JOIN partnership_entries e ON e.institution_id = i.id
		ORDER BY i.position ASC, e.position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PartnershipRecord
	lastID := int64(-1)
	for rows.Next() {
		var (
			id                                     int64
			institution, country, city             string
			lat, lng                               *float64
			typ, description, program, inUnit, url *string
		)
		if err := rows.Scan(&id, &institution, &country, &city, &lat, &lng,
			&typ, &description, &program, &inUnit, &url); err != nil {
			return nil, err
		}

		if id != lastID {
			records = append(records, model.PartnershipRecord{
				Institution: institution,
				Country:     country,
				City:        city,
				Location:    model.LatLng{Lat: orNaN(lat), Lng: orNaN(lng)},
			})
			lastID = id
		}
		if typ == nil {
			continue // institution without entries
		}
		rec := &records[len(records)-1]
		rec.Partnerships = append(rec.Partnerships, model.PartnershipEntry{
			Type:        *typ,
			Description: deref(description),
			Program:     deref(program),
			InUnit:      deref(inUnit),
			URL:         deref(url),
		})
	}
	return records, rows.Err()
}

// ReplaceAll swaps the stored data for records in one transaction.
func (r *PartnershipRepository) ReplaceAll(ctx context.Context, records []model.PartnershipRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE partnership_entries, institutions RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	var entries [][]interface{}
	for pos, rec := range records {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO institutions (position, institution, country, city, lat, lng)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			pos, rec.Institution, rec.Country, rec.City,
			nullable(rec.Location.Lat), nullable(rec.Location.Lng),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert institution %q: %w", rec.Institution, err)
		}
		for epos, e := range rec.Partnerships {
			entries = append(entries, []interface{}{
				id, epos, e.Type, e.Description, e.Program, e.InUnit, e.URL,
			})
		}
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"partnership_entries"},
		[]string{"institution_id", "position", "type", "description", "program", "in_unit", "url"},
		pgx.CopyFromRows(entries),
	)
	if err != nil {
		return fmt.Errorf("copy entries: %w", err)
	}

	return tx.Commit(ctx)
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
