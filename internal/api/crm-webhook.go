package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"

	"github.com/gin-gonic/gin"
)

// handleCRMWebhook receives CRM conversation events. Only outbound SMS
// messages are dispatched; everything else is acknowledged and ignored. The
// CRM treats a non-2xx answer as a delivery failure and retries, which
// would duplicate sends, so processing failures after the acknowledgment
// stay on this side of the boundary.
func (s *Server) handleCRMWebhook(c *gin.Context) {
	var message dto.CRMOutboundMessage
	if err := c.ShouldBindJSON(&message); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	s.Metrics.RecordWebhook("crm", message.Type)

	if !strings.EqualFold(message.Type, "SMS") {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if message.LocationID == "" {
		log.Printf("[DISPATCH] - CRM message %s carries no location id", message.MessageID)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})

	go s.process(fmt.Sprintf("crm message %s", message.MessageID), func(ctx context.Context) error {
		return s.Outbound.Execute(ctx, &message)
	})
}
