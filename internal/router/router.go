package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/handler"
	"github.com/stemsi/partnermap/internal/metrics"
	"github.com/stemsi/partnermap/internal/middleware"
	"github.com/stemsi/partnermap/internal/response"
	"github.com/stemsi/partnermap/internal/web"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Dashboard *handler.DashboardHandler
	Record    *handler.RecordHandler
	Map       *handler.MapHandler
	Table     *handler.TableHandler
	System    *handler.SystemHandler
}

// Options carries the pieces of the router that are built outside it.
type Options struct {
	Metrics        *metrics.Metrics
	Templates      *template.Template
	DatasetVersion string
	// RateLimiter guards the JSON API when set.
	RateLimiter *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, opts Options) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Dataset-Version"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(opts.DatasetVersion))

	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}

	// Country shapes run to megabytes; compress everything large enough.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{MinLength: cfg.BrotliMinBytes}))

	tmpl := opts.Templates
	if tmpl == nil {
		tmpl = web.MustTemplates()
	}
	router.SetHTMLTemplate(tmpl)

	staticGroup := router.Group("/static")
	staticGroup.Use(middleware.CacheControl(cfg.StaticMaxAge))
	{
		staticGroup.StaticFS("/", web.Static())
	}

	// Health check.
	router.GET("/health", handlers.System.Health)

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// ─── Dashboard (HTML) ──────────────────────────────────────────────
	router.GET("/", handlers.Dashboard.Index)
	router.GET("/dashboard", middleware.NoStore(), handlers.Dashboard.Dashboard)

	// ─── JSON API ──────────────────────────────────────────────────────
	api := router.Group("/api/v1")
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Middleware())
	}
	{
		api.GET("/status", handlers.System.GetStatus)
		api.GET("/options", handlers.Record.GetOptions)
		api.GET("/records", handlers.Record.ListRecords)
		api.GET("/records/:index/detail", handlers.Record.GetDetail)
		api.GET("/table", handlers.Table.GetTable)

		mapGroup := api.Group("/map")
		{
			mapGroup.GET("/markers", handlers.Map.GetMarkers)
			mapGroup.GET("/countries", handlers.Map.GetCountries)
			mapGroup.GET("/countries/:name/count", handlers.Map.GetCountryCount)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
