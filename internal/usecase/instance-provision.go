package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
)

// SubscribedEvents are the webhook families the bridge needs from the
// gateway: messages in, receipts and connection transitions.
var SubscribedEvents = []string{
	"MESSAGES_UPSERT",
	"MESSAGES_UPDATE",
	"CONNECTION_UPDATE",
}

// InstanceProvisionUseCase is the surface the instance-management layer
// consumes. It owns the bridge-side bookkeeping of a gateway connection:
// the row, the webhook subscription and the mirrored connection state.
type InstanceProvisionUseCase struct {
	Configs   *config.Config
	Instances repositories.GatewayInstanceRepositoryInterface
	Evolution EvolutionAPI
}

func NewInstanceProvisionUseCase(
	configs *config.Config,
	instances repositories.GatewayInstanceRepositoryInterface,
	evolution EvolutionAPI,
) *InstanceProvisionUseCase {
	return &InstanceProvisionUseCase{
		Configs:   configs,
		Instances: instances,
		Evolution: evolution,
	}
}

// Provision registers a gateway instance for a tenant: persists the row,
// points the gateway's webhook at this bridge and mirrors the initial
// connection state. The webhook subscription happens before the first state
// read so no transition is missed in between.
func (ip *InstanceProvisionUseCase) Provision(ctx context.Context, instance *models.GatewayInstance) error {
	if instance.Name == "" {
		return fmt.Errorf("instance name is required")
	}
	if instance.TenantID == "" {
		return fmt.Errorf("instance %s has no tenant", instance.Name)
	}
	if instance.ConnectionState == "" {
		instance.ConnectionState = models.StateConnecting
	}

	if err := ip.Instances.Create(ctx, instance); err != nil {
		return fmt.Errorf("failed to persist instance %s: %w", instance.Name, err)
	}

	if err := ip.Evolution.SetWebhook(ctx, instance, ip.webhookURL(), SubscribedEvents); err != nil {
		// Without the subscription the instance would exist but never
		// deliver anything; undo the row so provisioning can be retried.
		if derr := ip.Instances.Delete(ctx, instance.Name); derr != nil {
			log.Printf("[PROVISION] - Failed to roll back instance %s: %v", instance.Name, derr)
		}
		return fmt.Errorf("failed to subscribe webhook for instance %s: %w", instance.Name, err)
	}

	state, err := ip.Evolution.GetConnectionState(ctx, instance)
	if err != nil {
		// The instance may not be paired yet; it stays connecting until
		// the gateway reports otherwise.
		log.Printf("[PROVISION] - Could not read state of instance %s: %v", instance.Name, err)
		return nil
	}
	if err := ip.Instances.UpdateConnectionState(ctx, instance.Name, state); err != nil {
		return fmt.Errorf("failed to persist state of instance %s: %w", instance.Name, err)
	}
	instance.ConnectionState = state
	instance.Authorized = state.Authorized()

	log.Printf("[PROVISION] - Instance %s provisioned (%s)", instance.Name, state)
	return nil
}

// Remove deletes the instance row; correlation entries cascade with it.
func (ip *InstanceProvisionUseCase) Remove(ctx context.Context, name string) error {
	if err := ip.Instances.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to remove instance %s: %w", name, err)
	}
	log.Printf("[PROVISION] - Instance %s removed", name)
	return nil
}

// SyncConnectionState re-reads the live gateway state, covering transitions
// whose webhooks were missed while the bridge was down.
func (ip *InstanceProvisionUseCase) SyncConnectionState(ctx context.Context, name string) error {
	instance, err := ip.Instances.FindByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load instance %s: %w", name, err)
	}

	state, err := ip.Evolution.GetConnectionState(ctx, instance)
	if err != nil {
		return fmt.Errorf("failed to read state of instance %s: %w", name, err)
	}

	if state != instance.ConnectionState {
		if err := ip.Instances.UpdateConnectionState(ctx, name, state); err != nil {
			return fmt.Errorf("failed to persist state of instance %s: %w", name, err)
		}
		log.Printf("[PROVISION] - Instance %s state synced %s -> %s", name, instance.ConnectionState, state)
	}
	return nil
}

func (ip *InstanceProvisionUseCase) webhookURL() string {
	return strings.TrimSuffix(ip.Configs.WebhookPublicURL, "/") + "/webhooks/evolution"
}
