package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/store"
)

func TestUpdateNotifiesListeners(t *testing.T) {
	svc := NewService(store.New(models.NewDocument(), nil, nil), nil)

	var seen []models.Settings
	svc.OnChange(func(s models.Settings) { seen = append(seen, s) })

	next := svc.Get()
	next.NotificationsTelegram = true
	next.TelegramChatID = 42
	next.SMTPServer = ""

	got, err := svc.Update(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", got.SMTPServer)
	require.Len(t, seen, 1)
	assert.Equal(t, int64(42), seen[0].TelegramChatID)
	assert.Equal(t, got, svc.Get())
}

func TestUpdateRejectsBadPort(t *testing.T) {
	svc := NewService(store.New(models.NewDocument(), nil, nil), nil)

	next := svc.Get()
	next.SMTPPort = 70000
	_, err := svc.Update(context.Background(), next)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 587, svc.Get().SMTPPort)
}
