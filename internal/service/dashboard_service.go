package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/detail"
	"github.com/stemsi/partnermap/internal/filter"
	"github.com/stemsi/partnermap/internal/mapview"
	"github.com/stemsi/partnermap/internal/metrics"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/store"
	"github.com/stemsi/partnermap/internal/table"
)

// ErrIndexOutOfRange is returned when a detail index is outside the
// filtered list.
var ErrIndexOutOfRange = errors.New("detail index out of range")

// DashboardService answers every dashboard query from the record store.
// The store never changes, so every method is a pure query.
type DashboardService struct {
	store       *store.Store
	boundaries  *mapview.Boundaries
	cache       ResultCache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	options     filter.Options
	mapDefaults mapview.View
	loadErr     error
	log         zerolog.Logger
}

// NewDashboardService creates the service. cache may be nil.
func NewDashboardService(
	st *store.Store,
	boundaries *mapview.Boundaries,
	cache ResultCache,
	m *metrics.Metrics,
	cfg *config.Config,
	log zerolog.Logger,
) *DashboardService {
	if boundaries == nil {
		boundaries = mapview.EmptyBoundaries()
	}
	stats := st.Stats()
	m.ObserveLoad(stats.Loaded, stats.RejectedLocation, stats.RejectedEmpty)

	return &DashboardService{
		store:      st,
		boundaries: boundaries,
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		metrics:    m,
		options:    filter.BuildOptions(st.All()),
		mapDefaults: mapview.View{
			Center: model.LatLng{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng},
			Zoom:   cfg.MapZoom,
		},
		log: log.With().Str("component", "dashboard_service").Logger(),
	}
}

// MarkUnavailable records why the data could not be loaded. The dashboard
// keeps serving the empty store and shows the error.
func (s *DashboardService) MarkUnavailable(err error) {
	s.loadErr = err
}

// Status describes the loaded data.
type Status struct {
	Records   int             `json:"records"`
	Countries int             `json:"countries"`
	Version   string          `json:"version"`
	Load      store.LoadStats `json:"load"`
	Degraded  bool            `json:"degraded"`
	LoadError string          `json:"load_error,omitempty"`
}

// Status returns the current data status.
func (s *DashboardService) Status() Status {
	st := Status{
		Records:   s.store.Len(),
		Countries: s.boundaries.Len(),
		Version:   s.store.Version(),
		Load:      s.store.Stats(),
	}
	if s.loadErr != nil {
		st.Degraded = true
		st.LoadError = s.loadErr.Error()
	}
	return st
}

// Options returns the dropdown values.
func (s *DashboardService) Options() filter.Options { return s.options }

// MapDefaults returns the configured default map view.
func (s *DashboardService) MapDefaults() mapview.View { return s.mapDefaults }

// Filter applies sel to the store. Results are cached when a cache is
// configured; cache failures fall back to computing the result.
func (s *DashboardService) Filter(ctx context.Context, sel filter.Selection) filter.Result {
	if s.cache == nil || sel.IsZero() {
		return s.compute(sel)
	}

	key := config.CacheKey.FilterResultKey(s.store.Version(), sel.Key())
	data, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.CacheResults.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("Filter cache read failed")
	case ok:
		var res filter.Result
		if err := json.Unmarshal(data, &res); err == nil {
			s.metrics.CacheResults.WithLabelValues("hit").Inc()
			return res
		}
		s.log.Warn().Str("key", key).Msg("Discarding undecodable cached filter result")
	default:
		s.metrics.CacheResults.WithLabelValues("miss").Inc()
	}

	res := s.compute(sel)
	if data, err := json.Marshal(res); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Filter cache write failed")
		}
	}
	return res
}

func (s *DashboardService) compute(sel filter.Selection) filter.Result {
	res := filter.Apply(s.store.All(), sel)
	s.metrics.FilterRuns.Inc()
	s.metrics.FilterMatches.Observe(float64(res.Matched))
	return res
}

// DetailView is the detail panel for one index of the filtered list, with
// the indices the previous/next controls lead to.
type DetailView struct {
	Index int          `json:"index"`
	Count int          `json:"count"`
	Prev  int          `json:"prev"`
	Next  int          `json:"next"`
	Panel detail.Panel `json:"panel"`
}

// Detail renders the record at index within the list filtered by sel.
func (s *DashboardService) Detail(ctx context.Context, sel filter.Selection, index int) (*DetailView, error) {
	res := s.Filter(ctx, sel)
	return DetailAt(res, index)
}

// DetailAt renders the record at index within an already filtered result.
func DetailAt(res filter.Result, index int) (*DetailView, error) {
	nav := detail.NewNavigator(len(res.Records))
	if err := nav.Select(index); err != nil {
		return nil, ErrIndexOutOfRange
	}
	prev, next := nav.Neighbours()
	return &DetailView{
		Index: index,
		Count: len(res.Records),
		Prev:  prev,
		Next:  next,
		Panel: detail.Render(res.Records[index]),
	}, nil
}

// Table returns a page of the table built from the filtered records.
func (s *DashboardService) Table(ctx context.Context, sel filter.Selection, f table.Filter, page, perPage int) table.Page {
	rows := table.Rows(s.Filter(ctx, sel).Records)
	return table.Paginate(table.Apply(rows, f), page, perPage)
}

// Markers returns the marker layer for the filtered records.
func (s *DashboardService) Markers(ctx context.Context, sel filter.Selection, st mapview.State) *geojson.FeatureCollection {
	return mapview.Markers(s.Filter(ctx, sel).Records, st)
}

// Countries returns the country layer with per-country record counts.
func (s *DashboardService) Countries(st mapview.State) *geojson.FeatureCollection {
	return mapview.Countries(s.boundaries, s.store.All(), st)
}

// CountryCount returns the number of records in the named country.
func (s *DashboardService) CountryCount(name string) int {
	return mapview.CountryCount(s.boundaries, s.store.All(), name)
}
