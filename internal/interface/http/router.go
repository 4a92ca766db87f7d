package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/plant-care/internal/domain/auth"
	"github.com/yanqian/plant-care/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUpload + 1<<20
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	api.Use(authMiddleware(authSvc))
	{
		api.GET("/plants", handler.ListPlants)
		api.POST("/plants", handler.CreatePlant)
		api.GET("/plants/:id", handler.GetPlant)
		api.PUT("/plants/:id", handler.UpdatePlant)
		api.DELETE("/plants/:id", handler.DeletePlant)
		api.GET("/plants/:id/reminders", handler.ListReminders)
		api.POST("/plants/:id/reminders", handler.ScheduleReminder)
		api.GET("/plants/:id/timeline", handler.ListTimeline)
		api.POST("/plants/:id/notes", handler.AddNote)
		api.POST("/plants/:id/photos", handler.UploadPhoto)
		api.GET("/plants/:id/insights", handler.PlantInsights)

		api.GET("/reminders/due", handler.DueReminders)
		api.POST("/reminders/:id/complete", handler.CompleteReminder)

		api.GET("/timeline/latest", handler.LatestTimeline)
		api.GET("/photos/:id", handler.PhotoContent)
		api.DELETE("/photos/:id", handler.DeletePhoto)

		api.GET("/weather", handler.Weather)

		api.GET("/zones", handler.ListZones)
		api.POST("/zones", handler.AddZone)
		api.PUT("/zones/:id", handler.UpdateZone)
		api.DELETE("/zones/:id", handler.DeleteZone)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
