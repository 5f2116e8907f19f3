package repositories

import (
	"context"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"gorm.io/gorm"
)

type GatewayInstanceRepository struct {
	db *gorm.DB
}

type GatewayInstanceRepositoryInterface interface {
	Create(ctx context.Context, instance *models.GatewayInstance) error
	Update(ctx context.Context, instance *models.GatewayInstance) error
	FindByName(ctx context.Context, name string) (*models.GatewayInstance, error)
	FindByTenant(ctx context.Context, tenantID string) ([]models.GatewayInstance, error)
	UpdateConnectionState(ctx context.Context, name string, state models.ConnectionState) error
	Delete(ctx context.Context, name string) error
}

func NewGatewayInstanceRepository(db *gorm.DB) *GatewayInstanceRepository {
	return &GatewayInstanceRepository{
		db: db,
	}
}

func (repo *GatewayInstanceRepository) Create(ctx context.Context, instance *models.GatewayInstance) error {
	result := repo.db.WithContext(ctx).Create(instance)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (repo *GatewayInstanceRepository) Update(ctx context.Context, instance *models.GatewayInstance) error {
	result := repo.db.WithContext(ctx).Model(instance).Updates(instance)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (repo *GatewayInstanceRepository) FindByName(ctx context.Context, name string) (*models.GatewayInstance, error) {
	var instance models.GatewayInstance
	result := repo.db.WithContext(ctx).Where("name = ?", name).First(&instance)
	if result.Error != nil {
		return nil, result.Error
	}
	return &instance, nil
}

// FindByTenant returns the tenant's instances ordered oldest first, which is
// the deterministic tie-break when a contact carries no instance tag.
func (repo *GatewayInstanceRepository) FindByTenant(ctx context.Context, tenantID string) ([]models.GatewayInstance, error) {
	var instances []models.GatewayInstance
	result := repo.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&instances)
	if result.Error != nil {
		return nil, result.Error
	}
	return instances, nil
}

func (repo *GatewayInstanceRepository) UpdateConnectionState(ctx context.Context, name string, state models.ConnectionState) error {
	result := repo.db.WithContext(ctx).Model(&models.GatewayInstance{}).Where("name = ?", name).Updates(map[string]interface{}{
		"connection_state": state,
		"authorized":       state.Authorized(),
	})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (repo *GatewayInstanceRepository) Delete(ctx context.Context, name string) error {
	result := repo.db.WithContext(ctx).Where("name = ?", name).Delete(&models.GatewayInstance{})
	if result.Error != nil {
		return result.Error
	}
	return nil
}
