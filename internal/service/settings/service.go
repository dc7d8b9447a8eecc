// Package settings reads and replaces the notification and display settings.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/store"
)

// Service guards settings changes and notifies listeners afterwards.
type Service struct {
	store  *store.Store
	logger *zap.Logger

	mu        sync.Mutex
	listeners []func(models.Settings)
}

// NewService wires a settings service.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// OnChange registers fn to run after every successful update.
func (s *Service) OnChange(fn func(models.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns the current settings.
func (s *Service) Get() models.Settings {
	return s.store.Snapshot().Settings
}

// Update validates and replaces the settings.
func (s *Service) Update(ctx context.Context, next models.Settings) (models.Settings, error) {
	if next.SMTPPort < 0 || next.SMTPPort > 65535 {
		return models.Settings{}, fmt.Errorf("%w: smtp port %d out of range", models.ErrValidation, next.SMTPPort)
	}
	if next.SMTPServer == "" {
		next.SMTPServer = models.DefaultSettings().SMTPServer
	}
	if next.SMTPPort == 0 {
		next.SMTPPort = models.DefaultSettings().SMTPPort
	}

	err := s.store.Update(ctx, func(doc *models.Document) error {
		doc.Settings = next
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.Settings{}, err
	}

	s.logger.Info("settings updated",
		zap.Bool("notifications", next.Notifications),
		zap.Bool("email", next.NotificationsEmail),
		zap.Bool("whatsapp", next.NotificationsWhatsApp),
		zap.Bool("telegram", next.NotificationsTelegram))

	s.mu.Lock()
	listeners := append([]func(models.Settings){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(next)
	}

	return next, err
}
