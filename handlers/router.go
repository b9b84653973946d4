package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the API routes, CORS and request logging onto a new gin engine
func NewRouter(h *APIHandler, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(allowedOrigins))

	// Original single-dataset routes, served from the latest analysis
	router.POST("/analyze", h.Analyze)
	router.GET("/student/:rollNo", h.GetStudent)
	router.GET("/low-attendance", h.GetLowAttendance)

	api := router.Group("/api")
	{
		api.POST("/analyze", h.Analyze)

		// Dataset routes
		api.GET("/datasets", h.ListDatasets)
		api.GET("/datasets/:datasetId", h.GetDataset)
		api.DELETE("/datasets/:datasetId", h.DeleteDataset)
		api.GET("/datasets/:datasetId/students/:rollNo", h.GetDatasetStudent)
		api.GET("/datasets/:datasetId/low-attendance", h.GetDatasetLowAttendance)
		api.GET("/datasets/:datasetId/export", h.ExportDataset)

		api.GET("/ping", h.Ping)
	}

	router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
