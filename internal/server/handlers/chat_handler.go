package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	whatsappsvc "github.com/mamadbah2/antkeeper/internal/service/whatsapp"
)

// ChatService answers keeper commands arriving over WhatsApp.
type ChatService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// ChatHandler serves /webhook and /send-message.
type ChatHandler struct {
	svc    ChatService
	logger *zap.Logger
}

// NewChatHandler constructs the chat handler.
func NewChatHandler(svc ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{svc: svc, logger: logger}
}

// Verify echoes Meta's subscription challenge when the token matches.
func (h *ChatHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook subscription refused", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the commands in an inbound callback. Anything other than 200
// makes Meta redeliver, and a repeated /done would complete a second
// reminder, so command failures are logged and acknowledged.
func (h *ChatHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("unreadable webhook callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("chat command failed", zap.Int("messages", countMessages(payload)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// Send delivers a text typed by the keeper to a WhatsApp number.
func (h *ChatHandler) Send(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.svc.SendOutbound(c.Request.Context(), req)
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, whatsappsvc.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "whatsapp is not configured"})
	default:
		h.logger.Error("outbound whatsapp message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
	}
}

func countMessages(p models.WebhookPayload) int {
	n := 0
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			n += len(change.Value.Messages)
		}
	}
	return n
}
