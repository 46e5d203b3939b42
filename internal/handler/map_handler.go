package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/partnermap/internal/mapview"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/response"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/validator"
)

// MapHandler serves the map layers as GeoJSON.
type MapHandler struct {
	dashboardService *service.DashboardService
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(dashboardService *service.DashboardService) *MapHandler {
	return &MapHandler{dashboardService: dashboardService}
}

func (h *MapHandler) bindState(c *gin.Context) (mapview.State, bool) {
	var q model.MapQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return mapview.State{}, false
	}
	return mapview.StateFromQuery(q, h.dashboardService.MapDefaults()), true
}

// GetMarkers godoc
// GET /api/v1/map/markers?country=&type=&sponsor=&marker=
// Returns one point per filtered record; marker names the active one.
func (h *MapHandler) GetMarkers(c *gin.Context) {
	sel, ok := bindSelection(c)
	if !ok {
		return
	}
	st, ok := h.bindState(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, h.dashboardService.Markers(c.Request.Context(), sel, st))
}

// GetCountries godoc
// GET /api/v1/map/countries?hover=
// Returns the country shapes with their record counts.
func (h *MapHandler) GetCountries(c *gin.Context) {
	st, ok := h.bindState(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, h.dashboardService.Countries(st))
}

type countryCountResponse struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// GetCountryCount godoc
// GET /api/v1/map/countries/:name/count
// Returns the number of records for a clicked country. Countries without a
// shape count zero.
func (h *MapHandler) GetCountryCount(c *gin.Context) {
	name := c.Param("name")
	response.Success(c, http.StatusOK, countryCountResponse{
		Country: name,
		Count:   h.dashboardService.CountryCount(name),
	})
}
