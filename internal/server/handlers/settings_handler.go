package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// SettingsService reads and replaces settings.
type SettingsService interface {
	Get() models.Settings
	Update(ctx context.Context, next models.Settings) (models.Settings, error)
}

// SettingsHandler serves /settings.
type SettingsHandler struct {
	svc    SettingsService
	logger *zap.Logger
}

// NewSettingsHandler constructs the settings handler.
func NewSettingsHandler(svc SettingsService, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, logger: logger}
}

// Get returns the settings with the e-mail password masked.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, masked(h.svc.Get()))
}

// Update replaces the settings. An empty password keeps the stored one.
func (h *SettingsHandler) Update(c *gin.Context) {
	current := h.svc.Get()
	next := current
	if err := c.ShouldBindJSON(&next); err != nil {
		h.logger.Warn("invalid settings payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if next.EmailPassword == "" || next.EmailPassword == maskedPassword {
		next.EmailPassword = current.EmailPassword
	}

	saved, err := h.svc.Update(c.Request.Context(), next)
	respond(c, h.logger, http.StatusOK, masked(saved), err)
}

const maskedPassword = "********"

func masked(s models.Settings) models.Settings {
	if s.EmailPassword != "" {
		s.EmailPassword = maskedPassword
	}
	return s
}
