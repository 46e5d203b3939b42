package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/handler"
	"github.com/stemsi/partnermap/internal/mapview"
	"github.com/stemsi/partnermap/internal/metrics"
	"github.com/stemsi/partnermap/internal/middleware"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/store"
	"github.com/stemsi/partnermap/internal/validator"
)

const boundariesJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"Chile"},"geometry":{"type":"Polygon","coordinates":[[[-75,-56],[-66,-56],[-66,-17],[-75,-56]]]}},
 {"type":"Feature","properties":{"ADMIN":"Italy"},"geometry":{"type":"Polygon","coordinates":[[[6,36],[19,36],[19,47],[6,36]]]}}
]}`

func testRecords() []model.PartnershipRecord {
	return []model.PartnershipRecord{
		{Institution: "Università di Bologna", Country: "Italy", City: "Bologna", Location: model.LatLng{Lat: 44.49, Lng: 11.34},
			Partnerships: []model.PartnershipEntry{{Type: "Exchange", Description: "Semester exchange", InUnit: "School of Law"}}},
		{Institution: "PUC", Country: "Chile", City: "Santiago", Location: model.LatLng{Lat: -33.44, Lng: -70.65},
			Partnerships: []model.PartnershipEntry{
				{Type: "Study Abroad", Description: "Summer program", InUnit: "College of Arts"},
				{Type: "Customized Study Abroad", Description: "Faculty-led", Program: "Andes", InUnit: "School of Law\nCollege of Arts", URL: "https://x.edu"},
			}},
		{Institution: "U. de Chile", Country: "Chile", Location: model.LatLng{Lat: -33.45, Lng: -70.66},
			Partnerships: []model.PartnershipEntry{{Type: "Exchange", Description: "Joint lab", InUnit: "College of Engineering"}}},
		{Institution: "Universidad de Lima", Country: "Peru", City: "Lima", Location: model.LatLng{Lat: -12.08, Lng: -76.97},
			Partnerships: []model.PartnershipEntry{{Type: "Research", Description: "Andean studies"}}},
	}
}

type testEnv struct {
	engine  *gin.Engine
	svc     *service.DashboardService
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, records []model.PartnershipRecord, opts ...func(*Options)) testEnv {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:         gin.TestMode,
		CacheTTL:        time.Minute,
		MapCenterLat:    20,
		MapZoom:         2,
		TileURL:         "https://tiles.example/{z}/{x}/{y}.png",
		TileAttribution: "tiles",
		BrotliMinBytes:  1 << 20,
		StaticMaxAge:    600,
	}
	st := store.New(records)
	b, err := mapview.ParseBoundaries([]byte(boundariesJSON))
	require.NoError(t, err)
	m := metrics.New()
	svc := service.NewDashboardService(st, b, nil, m, cfg, zerolog.Nop())

	handlers := &Handlers{
		Dashboard: handler.NewDashboardHandler(svc, cfg, zerolog.Nop()),
		Record:    handler.NewRecordHandler(svc),
		Map:       handler.NewMapHandler(svc),
		Table:     handler.NewTableHandler(svc),
		System:    handler.NewSystemHandler(svc),
	}
	o := Options{Metrics: m, DatasetVersion: st.Version()}
	for _, fn := range opts {
		fn(&o)
	}
	return testEnv{engine: SetupRouter(handlers, cfg, o), svc: svc, metrics: m}
}

func (e testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
	Metadata struct {
		RequestID      string `json:"request_id"`
		DatasetVersion string `json:"dataset_version"`
	} `json:"metadata"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestDeepLinkRedirect(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/?country=Chile&partners=Study_Abroad&sponsors=College_of_Arts&zoom=4")
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", loc.Path)
	q := loc.Query()
	assert.Equal(t, "Chile", q.Get("country"))
	assert.Equal(t, "Study Abroad", q.Get("type"))
	assert.Equal(t, "College of Arts", q.Get("sponsor"))
	assert.Equal(t, "4", q.Get("zoom"))
	assert.False(t, q.Has("partners"))
	assert.False(t, q.Has("sponsors"))

	w = env.get(t, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboardPage(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/dashboard?country=Chile&index=0")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Showing 2 of 4 entries")
	assert.Contains(t, body, "<h2>PUC</h2>")
	assert.Contains(t, body, "Santiago, Chile")
	assert.Contains(t, body, "Program: Andes")
	assert.Contains(t, body, `target="_blank" rel="noopener"`)
	assert.Contains(t, body, "1 / 2")
	assert.Contains(t, body, "index=1")
	assert.NotContains(t, body, "Università di Bologna")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestDashboardPage_NoResults(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/dashboard?country=Chile&type=Research")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Showing 0 of 4 entries")
	assert.Contains(t, w.Body.String(), "No results found")
}

func TestDashboardPage_BadIndex(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/dashboard?country=Italy&index=5")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Showing 1 of 4 entries")
	assert.Contains(t, w.Body.String(), "Select a marker")
}

func TestDashboardPage_LoadError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.svc.MarkUnavailable(errors.New("fetch data source: unexpected status 404"))

	w := env.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Partnership data could not be loaded")
	assert.Contains(t, w.Body.String(), "Showing 0 of 0 entries")

	w = env.get(t, "/health")
	env2 := decode(t, w)
	assert.Contains(t, string(env2.Data), `"status":"degraded"`)
}

func TestListRecords(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/api/v1/records?type=Study+Abroad&sponsor=School+of+Law")
	require.Equal(t, http.StatusOK, w.Code)
	e := decode(t, w)
	assert.NotEmpty(t, e.Metadata.RequestID)
	assert.NotEmpty(t, e.Metadata.DatasetVersion)

	var data struct {
		Summary string                    `json:"summary"`
		Records []model.PartnershipRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "Showing 1 of 4 entries", data.Summary)
	require.Len(t, data.Records, 1)
	require.Len(t, data.Records[0].Partnerships, 1)
	assert.Equal(t, "Customized Study Abroad", data.Records[0].Partnerships[0].Type)
}

func TestListRecords_ValidationError(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/api/v1/records?country="+strings.Repeat("x", 201))
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)
	require.NotNil(t, e.Error)
	assert.Equal(t, "VALIDATION_ERROR", e.Error.Code)
	assert.Contains(t, e.Error.Fields, "country")
}

func TestGetOptions(t *testing.T) {
	env := newTestEnv(t, testRecords())

	e := decode(t, env.get(t, "/api/v1/options"))
	var opts struct {
		Countries []string `json:"countries"`
		Types     []string `json:"types"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &opts))
	assert.Equal(t, []string{"Chile", "Italy", "Peru"}, opts.Countries)
	assert.Equal(t, []string{"Customized Study Abroad", "Exchange", "Research", "Study Abroad"}, opts.Types)
}

func TestGetDetail(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/api/v1/records/1/detail?country=Chile")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.DetailView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, 0, view.Prev)
	assert.Equal(t, 0, view.Next)
	assert.Equal(t, "U. de Chile", view.Panel.Institution)
	assert.Equal(t, "Chile", view.Panel.Location)

	w = env.get(t, "/api/v1/records/2/detail?country=Chile")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", decode(t, w).Error.Code)

	w = env.get(t, "/api/v1/records/abc/detail")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INDEX", decode(t, w).Error.Code)
}

func TestMapEndpoints(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/api/v1/map/markers?country=Chile&marker=2")
	require.Equal(t, http.StatusOK, w.Code)
	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fc))
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "default", fc.Features[0].Properties["icon"])
	assert.Equal(t, "active", fc.Features[1].Properties["icon"])

	w = env.get(t, "/api/v1/map/countries?hover=Italy")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fc))
	require.Len(t, fc.Features, 2)
	assert.Equal(t, float64(2), fc.Features[0].Properties["count"])
	assert.Equal(t, true, fc.Features[1].Properties["highlighted"])

	w = env.get(t, "/api/v1/map/countries/Chile/count")
	assert.JSONEq(t, `{"country":"Chile","count":2}`, string(decode(t, w).Data))
	// Peru has records but no shape.
	w = env.get(t, "/api/v1/map/countries/Peru/count")
	assert.JSONEq(t, `{"country":"Peru","count":0}`, string(decode(t, w).Data))

	w = env.get(t, "/api/v1/map/markers?zoom=99")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTable(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/api/v1/table?per_page=2&page=2")
	require.Equal(t, http.StatusOK, w.Code)
	e := decode(t, w)
	require.NotNil(t, e.Pagination)
	assert.Equal(t, 2, e.Pagination.Page)
	assert.Equal(t, 5, e.Pagination.TotalItems)
	assert.Equal(t, 3, e.Pagination.TotalPages)

	w = env.get(t, "/api/v1/table?col_country=chi&description=LAB")
	e = decode(t, w)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(e.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "U. de Chile", rows[0]["name"])

	w = env.get(t, "/api/v1/table?name=nothing-matches")
	e = decode(t, w)
	assert.JSONEq(t, `[]`, string(e.Data))
	assert.Equal(t, 0, e.Pagination.TotalItems)

	w = env.get(t, "/api/v1/table?per_page=500")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 4, health.Records)

	w = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "partnermap_records_loaded 4")
	assert.Contains(t, w.Body.String(), `partnermap_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestStaticAndNotFound(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/static/map.js")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=600", w.Header().Get("Cache-Control"))

	w = env.get(t, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Error.Code)
}

func TestRateLimitedAPI(t *testing.T) {
	rl := middleware.NewRateLimiter(1, time.Hour)
	defer rl.Stop()
	env := newTestEnv(t, testRecords(), func(o *Options) { o.RateLimiter = rl })

	assert.Equal(t, http.StatusOK, env.get(t, "/api/v1/options").Code)
	assert.Equal(t, http.StatusTooManyRequests, env.get(t, "/api/v1/options").Code)
	// The dashboard itself is not limited.
	assert.Equal(t, http.StatusOK, env.get(t, "/dashboard").Code)
}

func TestDashboardPage_ResetKeepsFilters(t *testing.T) {
	env := newTestEnv(t, testRecords())

	w := env.get(t, "/dashboard?country=Chile&index=1&lat=-30&lng=-70&zoom=5&hover=Chile")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	// html/template escapes & in attributes.
	assert.Contains(t, body, `href="/dashboard?country=Chile&amp;hover=Chile&amp;index=1">Reset view`)
	assert.Contains(t, body, `data-countries-url="/api/v1/map/countries?hover=Chile"`)
	assert.Contains(t, body, `"zoom":5`)
}
