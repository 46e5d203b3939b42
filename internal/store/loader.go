package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/source"
)

// RecordReader lists raw records from a database.
type RecordReader interface {
	ListRecords(ctx context.Context) ([]model.PartnershipRecord, error)
}

// Loader builds the store from the configured data source.
type Loader struct {
	fetcher *source.Fetcher
	db      RecordReader
	log     zerolog.Logger
}

// NewLoader creates a Loader. db may be nil when no Postgres source is used.
func NewLoader(fetcher *source.Fetcher, db RecordReader, log zerolog.Logger) *Loader {
	return &Loader{
		fetcher: fetcher,
		db:      db,
		log:     log.With().Str("component", "store_loader").Logger(),
	}
}

// IsDatabaseSource reports whether ref names a Postgres database.
func IsDatabaseSource(ref string) bool {
	return strings.HasPrefix(ref, "postgres://") || strings.HasPrefix(ref, "postgresql://")
}

// Load fetches, decodes and validates the records named by ref.
func (l *Loader) Load(ctx context.Context, ref string) (*Store, error) {
	start := time.Now()

	var raw []model.PartnershipRecord
	var err error
	if IsDatabaseSource(ref) {
		if l.db == nil {
			return nil, errors.New("store: database source configured without a connection")
		}
		raw, err = l.db.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
	} else {
		obj, ferr := l.fetcher.Fetch(ctx, ref)
		if ferr != nil {
			return nil, fmt.Errorf("fetch data source: %w", ferr)
		}
		raw, err = Decode(obj)
		if err != nil {
			return nil, fmt.Errorf("decode data source: %w", err)
		}
	}

	for _, r := range raw {
		if !r.Location.Valid() {
			l.log.Debug().
				Str("institution", r.Institution).
				Str("country", r.Country).
				Msg("Dropping record without usable coordinates")
		}
	}

	s := New(raw)
	stats := s.Stats()
	l.log.Info().
		Int("rows", stats.Rows).
		Int("loaded", stats.Loaded).
		Int("rejected_location", stats.RejectedLocation).
		Int("rejected_empty", stats.RejectedEmpty).
		Str("version", s.Version()).
		Dur("took", time.Since(start)).
		Msg("Record store loaded")
	return s, nil
}
