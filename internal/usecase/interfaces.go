package usecase

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/protocols"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"
)

// EvolutionAPI is the gateway surface the routers consume, implemented by
// services.EvolutionClient.
type EvolutionAPI interface {
	SendText(ctx context.Context, instance *models.GatewayInstance, number, text string) (*services.SendResponse, error)
	SendMedia(ctx context.Context, instance *models.GatewayInstance, number, mediaType, mediaURL, caption, fileName string) (*services.SendResponse, error)
	GetConnectionState(ctx context.Context, instance *models.GatewayInstance) (models.ConnectionState, error)
	SetWebhook(ctx context.Context, instance *models.GatewayInstance, webhookURL string, events []string) error
}

// CRMAPI is the conversation surface the routers consume, implemented by
// services.CRMService.
type CRMAPI interface {
	UpsertContact(ctx context.Context, tenant *models.Tenant, phone, name string, tags []string) (*services.Contact, error)
	FindOrCreateConversation(ctx context.Context, tenant *models.Tenant, contactID string) (string, error)
	PostInboundMessage(ctx context.Context, tenant *models.Tenant, conversationID, message string, attachments []string, date time.Time) (string, error)
	UpdateMessageStatus(ctx context.Context, tenant *models.Tenant, messageID, status string) error
}

// publishUsage emits one accounting event. Publishing is best effort and
// never interferes with the message flow that produced the event.
func publishUsage(ctx context.Context, queue protocols.Publisher, event dto.UsageEvent) {
	if queue == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := queue.Publish(ctx, body); err != nil {
		log.Printf("[RABBITMQ] - Failed to publish %s event: %v", event.Event, err)
	}
}
