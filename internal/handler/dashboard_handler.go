package handler

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/filter"
	"github.com/stemsi/partnermap/internal/mapview"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/table"
	"github.com/stemsi/partnermap/internal/validator"
)

const dashboardPath = "/dashboard"

// DashboardHandler renders the HTML dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	tileURL          string
	tileAttribution  string
	log              zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, cfg *config.Config, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		tileURL:          cfg.TileURL,
		tileAttribution:  cfg.TileAttribution,
		log:              log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Index godoc
// GET /
// Applies a deep link (country, partners, sponsors) by redirecting to the
// dashboard with the canonical filter parameters and the deep-link ones
// removed.
func (h *DashboardHandler) Index(c *gin.Context) {
	q := c.Request.URL.Query()
	if !filter.HasDeepLink(q) {
		c.Redirect(http.StatusFound, dashboardPath)
		return
	}

	sel := filter.FromDeepLink(q)
	target := filter.StripDeepLink(q)
	for k, v := range sel.Values() {
		target[k] = v
	}

	h.log.Debug().
		Str("country", sel.Country).
		Str("type", sel.PartnershipType).
		Str("sponsor", sel.Sponsor).
		Msg("Applying deep link")
	c.Redirect(http.StatusSeeOther, withQuery(dashboardPath, target))
}

type hiddenField struct {
	Name  string
	Value string
}

type dashboardLinks struct {
	Reset       string
	DetailBase  string
	CloseDetail string
	Prev        string
	Next        string
	PrevPage    string
	NextPage    string
	// Hidden carries the selection through the column search form.
	Hidden []hiddenField
}

type mapConfig struct {
	TileURL         string                     `json:"tile_url"`
	TileAttribution string                     `json:"tile_attribution"`
	Center          model.LatLng               `json:"center"`
	Zoom            int                        `json:"zoom"`
	Markers         *geojson.FeatureCollection `json:"markers"`
	Highlight       string                     `json:"highlight,omitempty"`
	CountriesURL    string                     `json:"-"`
}

type dashboardPage struct {
	Selection filter.Selection
	Options   filter.Options
	Summary   string
	Table     table.Page
	Columns   model.TableQuery
	Detail    *service.DetailView
	Links     dashboardLinks
	Map       mapConfig
	LoadError string
	Errors    map[string]string
}

// Dashboard godoc
// GET /dashboard
// Renders the filter form, map, summary line, table and detail panel for
// the state carried in the query string.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	errs := map[string]string{}

	var fq model.FilterQuery
	if fields := validator.BindQuery(c, &fq); fields != nil {
		mergeErrors(errs, fields)
		fq = model.FilterQuery{}
	}
	var mq model.MapQuery
	if fields := validator.BindQuery(c, &mq); fields != nil {
		mergeErrors(errs, fields)
		mq = model.MapQuery{}
	}
	var tq model.TableQuery
	if fields := validator.BindQuery(c, &tq); fields != nil {
		mergeErrors(errs, fields)
		tq = model.TableQuery{}
	}
	var dq model.DetailQuery
	if fields := validator.BindQuery(c, &dq); fields != nil {
		mergeErrors(errs, fields)
		dq = model.DetailQuery{}
	}

	ctx := c.Request.Context()
	sel := filter.FromForm(fq)
	res := h.dashboardService.Filter(ctx, sel)
	defaults := h.dashboardService.MapDefaults()
	st := mapview.StateFromQuery(mq, defaults)

	var view *service.DetailView
	if dq.Index != nil {
		v, err := service.DetailAt(res, *dq.Index)
		if err != nil {
			errs["index"] = "no partnership at this position of the filtered list"
		} else {
			view = v
			st.Activate(v.Panel.ID)
		}
	}

	page := table.Paginate(table.Apply(table.Rows(res.Records), table.FromQuery(tq)), tq.Page, tq.PerPage)

	state := pageState{sel: sel, columns: tq, page: page.Page, perPage: tq.PerPage, mapState: st, defaults: defaults}
	if view != nil {
		state.index = &view.Index
	}

	data := dashboardPage{
		Selection: sel.Normalize(),
		Options:   h.dashboardService.Options(),
		Summary:   res.Summary(),
		Table:     page,
		Columns:   tq,
		Detail:    view,
		Links:     state.links(view, page),
		Map: mapConfig{
			TileURL:         h.tileURL,
			TileAttribution: h.tileAttribution,
			Center:          st.View.Center,
			Zoom:            st.View.Zoom,
			Markers:         mapview.Markers(res.Records, st),
			Highlight:       st.Highlight,
			CountriesURL:    countriesURL(st.Highlight),
		},
		LoadError: h.dashboardService.Status().LoadError,
	}
	if len(errs) > 0 {
		data.Errors = errs
	}

	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusBadRequest
	}
	c.HTML(status, "dashboard.html", data)
}

// pageState is everything the dashboard URL carries.
type pageState struct {
	sel      filter.Selection
	columns  model.TableQuery
	page     int
	perPage  int
	index    *int
	mapState mapview.State
	defaults mapview.View
}

func (s pageState) values() url.Values {
	v := s.sel.Values()
	for k, vals := range columnValues(s.columns) {
		v[k] = vals
	}
	if s.page > 1 {
		v.Set("page", strconv.Itoa(s.page))
	}
	if s.perPage > 0 {
		v.Set("per_page", strconv.Itoa(s.perPage))
	}
	if s.index != nil {
		v.Set("index", strconv.Itoa(*s.index))
	}
	st := s.mapState
	// The active marker follows the detail index.
	st.Deactivate()
	for k, vals := range st.Values(s.defaults) {
		v[k] = vals
	}
	return v
}

func (s pageState) links(view *service.DetailView, page table.Page) dashboardLinks {
	links := dashboardLinks{}

	reset := s
	reset.mapState.Reset(s.defaults)
	links.Reset = withQuery(dashboardPath, reset.values())

	base := s
	base.index = nil
	links.DetailBase = withQuery(dashboardPath, base.values())
	links.CloseDetail = links.DetailBase

	if view != nil {
		prev, next := s, s
		prev.index, next.index = &view.Prev, &view.Next
		links.Prev = withQuery(dashboardPath, prev.values())
		links.Next = withQuery(dashboardPath, next.values())
	}

	if page.HasPrev() {
		p := s
		p.page = page.Page - 1
		links.PrevPage = withQuery(dashboardPath, p.values())
	}
	if page.HasNext() {
		p := s
		p.page = page.Page + 1
		links.NextPage = withQuery(dashboardPath, p.values())
	}

	// Searching the columns starts from the first page without a detail.
	hidden := s.sel.Values()
	if s.perPage > 0 {
		hidden.Set("per_page", strconv.Itoa(s.perPage))
	}
	keys := make([]string, 0, len(hidden))
	for k := range hidden {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		links.Hidden = append(links.Hidden, hiddenField{Name: k, Value: hidden.Get(k)})
	}
	return links
}

func columnValues(q model.TableQuery) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("name", q.Name)
	set("city", q.City)
	set("col_country", q.Country)
	set("description", q.Description)
	set("link", q.Link)
	return v
}

func countriesURL(highlight string) string {
	v := url.Values{}
	if highlight != "" {
		v.Set("hover", highlight)
	}
	return withQuery("/api/v1/map/countries", v)
}

func withQuery(path string, v url.Values) string {
	if enc := v.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

func mergeErrors(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
