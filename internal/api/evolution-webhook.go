package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"

	"github.com/gin-gonic/gin"
)

// handleEvolutionWebhook receives every gateway event family. The body is
// validated at the boundary, acknowledged with a fixed success response,
// and routed afterwards; there is no ordering guarantee between the
// acknowledgment and the completion of that routing.
func (s *Server) handleEvolutionWebhook(c *gin.Context) {
	var event dto.EvolutionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if event.Event == "" || event.Instance == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event and instance are required"})
		return
	}

	s.Metrics.RecordWebhook("evolution", event.Event)
	c.JSON(http.StatusOK, gin.H{"status": "received"})

	go s.routeEvolutionEvent(&event)
}

func (s *Server) routeEvolutionEvent(event *dto.EvolutionEvent) {
	name := fmt.Sprintf("%s from %s", event.Event, event.Instance)

	switch event.Event {
	case dto.EventMessagesUpsert:
		s.process(name, func(ctx context.Context) error {
			return s.Inbound.Execute(ctx, event)
		})
	case dto.EventConnectionUpdate:
		s.process(name, func(ctx context.Context) error {
			return s.Connection.Execute(ctx, event)
		})
	case dto.EventMessagesUpdate:
		s.process(name, func(ctx context.Context) error {
			return s.Status.Execute(ctx, event)
		})
	default:
		// The gateway emits more families than the bridge subscribes to;
		// anything unexpected is acknowledged and dropped, never fatal.
		log.Printf("[WEBHOOK] - Ignoring event %s from instance %s", event.Event, event.Instance)
	}
}
