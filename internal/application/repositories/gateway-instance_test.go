package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, repo *TenantRepository, id string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &models.Tenant{
		ID:             id,
		AccessToken:    "access",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}))
}

func TestGatewayInstanceFindByTenantOrdersOldestFirst(t *testing.T) {
	db := testDB(t)
	repo := NewGatewayInstanceRepository(db)
	ctx := context.Background()

	seedTenant(t, NewTenantRepository(db), "loc_1")

	older := &models.GatewayInstance{
		Name:            "inst-old",
		TenantID:        "loc_1",
		ConnectionState: models.StateOpen,
		CreatedAt:       time.Now().Add(-48 * time.Hour),
	}
	newer := &models.GatewayInstance{
		Name:            "inst-new",
		TenantID:        "loc_1",
		ConnectionState: models.StateOpen,
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	instances, err := repo.FindByTenant(ctx, "loc_1")
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "inst-old", instances[0].Name)
	assert.Equal(t, "inst-new", instances[1].Name)
}

func TestGatewayInstanceUpdateConnectionState(t *testing.T) {
	db := testDB(t)
	repo := NewGatewayInstanceRepository(db)
	ctx := context.Background()

	seedTenant(t, NewTenantRepository(db), "loc_1")
	require.NoError(t, repo.Create(ctx, &models.GatewayInstance{
		Name:            "inst-1",
		TenantID:        "loc_1",
		ConnectionState: models.StateConnecting,
	}))

	require.NoError(t, repo.UpdateConnectionState(ctx, "inst-1", models.StateOpen))

	stored, err := repo.FindByName(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateOpen, stored.ConnectionState)
	assert.True(t, stored.Authorized)

	require.NoError(t, repo.UpdateConnectionState(ctx, "inst-1", models.StateClosed))

	stored, err = repo.FindByName(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, stored.ConnectionState)
	assert.False(t, stored.Authorized)
}

func TestGatewayInstanceDeleteCascadesCorrelations(t *testing.T) {
	db := testDB(t)
	instanceRepo := NewGatewayInstanceRepository(db)
	correlationRepo := NewMessageCorrelationRepository(db)
	ctx := context.Background()

	seedTenant(t, NewTenantRepository(db), "loc_1")
	require.NoError(t, instanceRepo.Create(ctx, &models.GatewayInstance{
		Name:            "inst-1",
		TenantID:        "loc_1",
		ConnectionState: models.StateOpen,
	}))
	require.NoError(t, correlationRepo.Record(ctx, &models.MessageCorrelation{
		GatewayMessageID: "G1",
		CRMMessageID:     "M1",
		InstanceName:     "inst-1",
	}))

	require.NoError(t, instanceRepo.Delete(ctx, "inst-1"))

	var count int64
	require.NoError(t, db.Model(&models.MessageCorrelation{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
