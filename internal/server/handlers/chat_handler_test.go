package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	whatsappsvc "github.com/mamadbah2/antkeeper/internal/service/whatsapp"
)

type stubChat struct {
	handleErr error
	sendErr   error
	handled   int
}

func (s *stubChat) VerifyWebhookToken(_, token, challenge string) (string, error) {
	if token != "verify" {
		return "", errors.New("token mismatch")
	}
	return challenge, nil
}

func (s *stubChat) HandleWebhook(context.Context, models.WebhookPayload) error {
	s.handled++
	return s.handleErr
}

func (s *stubChat) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return s.sendErr
}

func chatEngine(svc ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.Send)
	return r
}

func TestChatHandler_ReceiveAcknowledgesFailures(t *testing.T) {
	svc := &stubChat{handleErr: errors.New("colony not found")}
	r := chatEngine(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"entry":[]}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.handled)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_SendStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"sent", nil, http.StatusAccepted},
		{"disabled", whatsappsvc.ErrDisabled, http.StatusServiceUnavailable},
		{"upstream", errors.New("graph api 500"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chatEngine(&stubChat{sendErr: tc.err})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewBufferString(`{"to":"336","message":"hi"}`)))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
