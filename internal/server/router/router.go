package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Colonies *handlers.ColonyHandler
	Calendar *handlers.CalendarHandler
	Settings *handlers.SettingsHandler
	Chat     *handlers.ChatHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.Colonies != nil {
		colonies := r.Group("/colonies")
		colonies.GET("", h.Colonies.List)
		colonies.POST("", h.Colonies.Create)
		colonies.GET("/:name", h.Colonies.Export)
		colonies.PUT("/:name", h.Colonies.Update)
		colonies.DELETE("/:name", h.Colonies.Delete)

		colonies.POST("/:name/observations", h.Colonies.RecordObservation)
		colonies.GET("/:name/graph", h.Colonies.Graph)
		colonies.GET("/:name/stats", h.Colonies.Stats)

		colonies.GET("/:name/reminders", h.Colonies.Reminders)
		colonies.POST("/:name/reminders", h.Colonies.AddReminder)
		colonies.DELETE("/:name/reminders/:id", h.Colonies.RemoveReminder)
		colonies.POST("/:name/reminders/:id/complete", h.Colonies.CompleteReminder)

		colonies.GET("/:name/recurring", h.Colonies.Rules)
		colonies.POST("/:name/recurring", h.Colonies.AddRule)
		colonies.DELETE("/:name/recurring/:id", h.Colonies.RemoveRule)

		colonies.GET("/:name/feedings", h.Colonies.Feedings)
	}

	if h.Calendar != nil {
		r.GET("/calendar", h.Calendar.Month)
		r.GET("/calendar/:date", h.Calendar.Day)
	}

	if h.Settings != nil {
		r.GET("/settings", h.Settings.Get)
		r.PUT("/settings", h.Settings.Update)
	}

	if h.Chat != nil {
		r.GET("/webhook", h.Chat.Verify)
		r.POST("/webhook", h.Chat.Receive)
		r.POST("/send-message", h.Chat.Send)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
