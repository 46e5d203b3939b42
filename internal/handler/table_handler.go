package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/partnermap/internal/model"
	"github.com/stemsi/partnermap/internal/response"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/table"
	"github.com/stemsi/partnermap/internal/validator"
)

// TableHandler serves the paginated table rows.
type TableHandler struct {
	dashboardService *service.DashboardService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(dashboardService *service.DashboardService) *TableHandler {
	return &TableHandler{dashboardService: dashboardService}
}

// GetTable godoc
// GET /api/v1/table?country=&type=&sponsor=&name=&city=&col_country=&description=&link=&page=&per_page=
// Returns one row per partnership entry of the filtered records, narrowed
// by the column searches.
func (h *TableHandler) GetTable(c *gin.Context) {
	sel, ok := bindSelection(c)
	if !ok {
		return
	}

	var q model.TableQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page := h.dashboardService.Table(c.Request.Context(), sel, table.FromQuery(q), q.Page, q.PerPage)
	response.SuccessWithPagination(c, http.StatusOK, page.Rows, &response.Pagination{
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}
