package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/partnermap/internal/response"
	"github.com/stemsi/partnermap/internal/service"
)

// SystemHandler reports service health.
type SystemHandler struct {
	dashboardService *service.DashboardService
	startTime        time.Time
}

func NewSystemHandler(dashboardService *service.DashboardService) *SystemHandler {
	return &SystemHandler{
		dashboardService: dashboardService,
		startTime:        time.Now(),
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Records   int    `json:"records"`
	Countries int    `json:"countries"`
	Dataset   string `json:"dataset"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
	LoadError string `json:"load_error,omitempty"`
}

// Health godoc
// GET /health
// Reports "ok", or "degraded" when the partnership data failed to load.
func (h *SystemHandler) Health(c *gin.Context) {
	st := h.dashboardService.Status()

	status := "ok"
	if st.Degraded {
		status = "degraded"
	}
	response.Success(c, http.StatusOK, healthResponse{
		Status:    status,
		Records:   st.Records,
		Countries: st.Countries,
		Dataset:   st.Version,
		Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
		GoVersion: runtime.Version(),
		LoadError: st.LoadError,
	})
}

// GetStatus godoc
// GET /api/v1/status
// Returns the load statistics of the record store.
func (h *SystemHandler) GetStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, h.dashboardService.Status())
}
