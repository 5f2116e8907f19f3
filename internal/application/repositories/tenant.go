package repositories

import (
	"context"
	"time"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TenantRepository struct {
	DB *gorm.DB
}

type TenantRepositoryInterface interface {
	FindById(ctx context.Context, id string) (*models.Tenant, error)
	Save(ctx context.Context, tenant *models.Tenant) error
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{DB: db}
}

func (repo *TenantRepository) FindById(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	result := repo.DB.WithContext(ctx).Where("id = ?", id).First(&tenant)
	if result.Error != nil {
		return nil, result.Error
	}
	return &tenant, nil
}

// Save upserts the tenant row keyed by location id, so a reinstall simply
// replaces the credential pair.
func (repo *TenantRepository) Save(ctx context.Context, tenant *models.Tenant) error {
	result := repo.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(tenant)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (repo *TenantRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	result := repo.DB.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":     accessToken,
		"refresh_token":    refreshToken,
		"token_expires_at": expiresAt,
	})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (repo *TenantRepository) Delete(ctx context.Context, id string) error {
	result := repo.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Tenant{})
	if result.Error != nil {
		return result.Error
	}
	return nil
}
