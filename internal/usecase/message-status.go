package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/protocols"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/metrics"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"
)

// MapGatewayStatus translates the gateway's delivery vocabulary into the
// CRM's. Intermediate acknowledgments map to nothing: submission was already
// reported as "sent" at dispatch time, so there is no CRM transition until
// the message reaches the handset. Unknown values also map to nothing and
// trigger no CRM call.
func MapGatewayStatus(status string) (string, bool) {
	switch strings.ToUpper(status) {
	case "DELIVERY_ACK":
		return services.CRMStatusDelivered, true
	case "READ":
		return services.CRMStatusRead, true
	case "PLAYED":
		// Voice notes report played instead of read.
		return services.CRMStatusRead, true
	case "ERROR":
		return services.CRMStatusFailed, true
	default:
		// PENDING, SERVER_ACK and anything the gateway adds later.
		return "", false
	}
}

// MessageStatusUseCase consumes delivery/read receipts for messages this
// bridge dispatched and pushes the mapped status onto the CRM message. The
// push is best effort: a status that cannot be delivered never blocks or
// fails the webhook that carried it.
type MessageStatusUseCase struct {
	Tenants      repositories.TenantRepositoryInterface
	Instances    repositories.GatewayInstanceRepositoryInterface
	Correlations repositories.MessageCorrelationRepositoryInterface
	CRM          CRMAPI
	Queue        protocols.Publisher
	Metrics      *metrics.Metrics
}

func NewMessageStatusUseCase(
	tenants repositories.TenantRepositoryInterface,
	instances repositories.GatewayInstanceRepositoryInterface,
	correlations repositories.MessageCorrelationRepositoryInterface,
	crm CRMAPI,
	queue protocols.Publisher,
	m *metrics.Metrics,
) *MessageStatusUseCase {
	return &MessageStatusUseCase{
		Tenants:      tenants,
		Instances:    instances,
		Correlations: correlations,
		CRM:          crm,
		Queue:        queue,
		Metrics:      m,
	}
}

func (ms *MessageStatusUseCase) Execute(ctx context.Context, event *dto.EvolutionEvent) error {
	data, err := event.MessageUpdate()
	if err != nil {
		return err
	}

	// Receipts for inbound messages track the contact's reading, not ours.
	if !data.FromMe {
		return nil
	}

	gatewayMessageID := data.GatewayMessageID()
	if gatewayMessageID == "" {
		log.Printf("[STATUS] - Status %s on %s carries no message id", data.Status, event.Instance)
		return nil
	}

	entry, err := ms.Correlations.FindByGatewayId(ctx, gatewayMessageID)
	if err != nil {
		return fmt.Errorf("failed to look up correlation for %s: %w", gatewayMessageID, err)
	}
	if entry == nil {
		// Expected for messages sent before the bridge existed or through
		// CRM workflows that never produced an entry.
		log.Printf("[STATUS] - No correlation for gateway message %s; ignoring %s", gatewayMessageID, data.Status)
		ms.Metrics.RecordCorrelationMiss()
		return nil
	}

	crmStatus, ok := MapGatewayStatus(data.Status)
	if !ok {
		return nil
	}

	instance, err := ms.Instances.FindByName(ctx, entry.InstanceName)
	if err != nil {
		return fmt.Errorf("failed to resolve instance %s: %w", entry.InstanceName, err)
	}
	tenant, err := ms.Tenants.FindById(ctx, instance.TenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant %s: %w", instance.TenantID, err)
	}

	if err := ms.CRM.UpdateMessageStatus(ctx, tenant, entry.CRMMessageID, crmStatus); err != nil {
		log.Printf("[STATUS] - Failed to push %s for message %s: %v", crmStatus, entry.CRMMessageID, err)
		return nil
	}

	ms.Metrics.RecordStatusPush(crmStatus)
	publishUsage(ctx, ms.Queue, dto.UsageEvent{
		Event:     dto.UsageStatusPushed,
		TenantID:  tenant.ID,
		Instance:  entry.InstanceName,
		Phone:     entry.ContactPhone,
		MessageID: entry.CRMMessageID,
	})

	log.Printf("[STATUS] - Message %s is now %s (gateway %s)", entry.CRMMessageID, crmStatus, data.Status)
	return nil
}
