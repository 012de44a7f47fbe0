package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/civicpulse/backend/internal/analytics"
	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/geocode"
	"github.com/civicpulse/backend/internal/http/handlers"
	"github.com/civicpulse/backend/internal/http/middleware"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/signal"

	_ "github.com/civicpulse/backend/docs"
)

func Router(cfg config.Config, store *db.Store, signals signal.Provider, geocoder geocode.Geocoder, engine analytics.Engine, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:         store,
		Signals:       signals,
		SignalTimeout: cfg.SignalTimeout,
		Geocoder:      geocoder,
		Engine:        engine,
		Validator:     validator.New(),
		Logger:        logger,
		AdminKey:      cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/tickets/:id/recommendation", h.TicketRecommendation)
		api.GET("/analytics/trends", h.Trends)
		api.GET("/analytics/sla", h.SLAReport)
		api.GET("/analytics/hotspots", h.Hotspots)
		api.GET("/analytics/departments", h.Departments)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/analytics/report", h.AnalyticsReport)
		admin.POST("/tickets/:id/resolve", h.ResolveTicket)
		admin.GET("/runs/latest", h.RunsLatest)
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
