package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
)

// ConnectionStateUseCase persists gateway connection transitions. The bridge
// never drives a transition itself; it only mirrors what the gateway
// reports and projects the three states onto the authorized flag tenants
// see.
type ConnectionStateUseCase struct {
	Instances repositories.GatewayInstanceRepositoryInterface
}

func NewConnectionStateUseCase(instances repositories.GatewayInstanceRepositoryInterface) *ConnectionStateUseCase {
	return &ConnectionStateUseCase{Instances: instances}
}

func (cs *ConnectionStateUseCase) Execute(ctx context.Context, event *dto.EvolutionEvent) error {
	data, err := event.ConnectionUpdate()
	if err != nil {
		return err
	}

	state, ok := models.ParseConnectionState(data.State)
	if !ok {
		log.Printf("[WEBHOOK] - Ignoring unknown connection state %q for instance %s", data.State, event.Instance)
		return nil
	}

	if err := cs.Instances.UpdateConnectionState(ctx, event.Instance, state); err != nil {
		return fmt.Errorf("failed to persist connection state of instance %s: %w", event.Instance, err)
	}

	log.Printf("[WEBHOOK] - Instance %s is now %s (authorized=%v)", event.Instance, state, state.Authorized())
	return nil
}
