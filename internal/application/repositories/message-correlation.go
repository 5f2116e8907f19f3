package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageCorrelationRepository struct {
	DB *gorm.DB
}

type MessageCorrelationRepositoryInterface interface {
	Record(ctx context.Context, correlation *models.MessageCorrelation) error
	FindByGatewayId(ctx context.Context, gatewayMessageID string) (*models.MessageCorrelation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewMessageCorrelationRepository(db *gorm.DB) *MessageCorrelationRepository {
	return &MessageCorrelationRepository{DB: db}
}

// Record inserts one correlation entry. A duplicate gateway message id is a
// silent no-op; the unique index absorbs webhook redelivery races without
// surfacing an error into the dispatch path.
func (repo *MessageCorrelationRepository) Record(ctx context.Context, correlation *models.MessageCorrelation) error {
	result := repo.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_message_id"}},
		DoNothing: true,
	}).Create(correlation)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// FindByGatewayId returns (nil, nil) when no entry exists; a miss is an
// expected outcome, not an error.
func (repo *MessageCorrelationRepository) FindByGatewayId(ctx context.Context, gatewayMessageID string) (*models.MessageCorrelation, error) {
	var correlation models.MessageCorrelation
	result := repo.DB.WithContext(ctx).Where("gateway_message_id = ?", gatewayMessageID).First(&correlation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &correlation, nil
}

func (repo *MessageCorrelationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.DB.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.MessageCorrelation{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
