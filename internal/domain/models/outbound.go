package models

// OutboundMessageRequest is a manual WhatsApp message pushed through the API.
type OutboundMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}
