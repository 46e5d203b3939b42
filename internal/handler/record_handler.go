package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/partnermap/internal/filter"
	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/response"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/validator"
)

// RecordHandler serves the filtered records and their detail panels.
type RecordHandler struct {
	dashboardService *service.DashboardService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(dashboardService *service.DashboardService) *RecordHandler {
	return &RecordHandler{dashboardService: dashboardService}
}

type recordListResponse struct {
	Selection filter.Selection          `json:"selection"`
	Summary   string                    `json:"summary"`
	Matched   int                       `json:"matched"`
	Total     int                       `json:"total"`
	Records   []model.PartnershipRecord `json:"records"`
}

// bindSelection binds the filter query, writing the error response on
// failure.
func bindSelection(c *gin.Context) (filter.Selection, bool) {
	var q model.FilterQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return filter.Selection{}, false
	}
	return filter.FromForm(q), true
}

// ListRecords godoc
// GET /api/v1/records?country=&type=&sponsor=
// Returns the records matching the selection with the summary line.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	res := h.dashboardService.Filter(c.Request.Context(), sel)
	response.Success(c, http.StatusOK, recordListResponse{
		Selection: sel,
		Summary:   res.Summary(),
		Matched:   res.Matched,
		Total:     res.Total,
		Records:   res.Records,
	})
}

// GetOptions godoc
// GET /api/v1/options
// Returns the country, partnership type and sponsor dropdown values.
func (h *RecordHandler) GetOptions(c *gin.Context) {
	response.Success(c, http.StatusOK, h.dashboardService.Options())
}

// GetDetail godoc
// GET /api/v1/records/:index/detail?country=&type=&sponsor=
// Returns the detail panel for a position of the filtered list together
// with the positions the previous and next controls lead to.
func (h *RecordHandler) GetDetail(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
		return
	}

	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	view, err := h.dashboardService.Detail(c.Request.Context(), sel, index)
	if err != nil {
		if errors.Is(err, service.ErrIndexOutOfRange) {
			response.Fail(c, http.StatusNotFound, response.ErrIndexOutOfRange)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, view)
}
