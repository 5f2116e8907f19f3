package usecase

import (
	"context"
	"time"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) FindById(ctx context.Context, id string) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if tenant, ok := args.Get(0).(*models.Tenant); ok {
		return tenant, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTenantRepo) Save(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	return m.Called(ctx, id, accessToken, refreshToken, expiresAt).Error(0)
}

func (m *mockTenantRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockInstanceRepo struct {
	mock.Mock
}

func (m *mockInstanceRepo) Create(ctx context.Context, instance *models.GatewayInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *mockInstanceRepo) Update(ctx context.Context, instance *models.GatewayInstance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *mockInstanceRepo) FindByName(ctx context.Context, name string) (*models.GatewayInstance, error) {
	args := m.Called(ctx, name)
	if instance, ok := args.Get(0).(*models.GatewayInstance); ok {
		return instance, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) FindByTenant(ctx context.Context, tenantID string) ([]models.GatewayInstance, error) {
	args := m.Called(ctx, tenantID)
	if instances, ok := args.Get(0).([]models.GatewayInstance); ok {
		return instances, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInstanceRepo) UpdateConnectionState(ctx context.Context, name string, state models.ConnectionState) error {
	return m.Called(ctx, name, state).Error(0)
}

func (m *mockInstanceRepo) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type mockCorrelationRepo struct {
	mock.Mock
}

func (m *mockCorrelationRepo) Record(ctx context.Context, correlation *models.MessageCorrelation) error {
	return m.Called(ctx, correlation).Error(0)
}

func (m *mockCorrelationRepo) FindByGatewayId(ctx context.Context, gatewayMessageID string) (*models.MessageCorrelation, error) {
	args := m.Called(ctx, gatewayMessageID)
	if correlation, ok := args.Get(0).(*models.MessageCorrelation); ok {
		return correlation, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCorrelationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockEvolution struct {
	mock.Mock
}

func (m *mockEvolution) SendText(ctx context.Context, instance *models.GatewayInstance, number, text string) (*services.SendResponse, error) {
	args := m.Called(ctx, instance, number, text)
	if resp, ok := args.Get(0).(*services.SendResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvolution) SendMedia(ctx context.Context, instance *models.GatewayInstance, number, mediaType, mediaURL, caption, fileName string) (*services.SendResponse, error) {
	args := m.Called(ctx, instance, number, mediaType, mediaURL, caption, fileName)
	if resp, ok := args.Get(0).(*services.SendResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvolution) GetConnectionState(ctx context.Context, instance *models.GatewayInstance) (models.ConnectionState, error) {
	args := m.Called(ctx, instance)
	return args.Get(0).(models.ConnectionState), args.Error(1)
}

func (m *mockEvolution) SetWebhook(ctx context.Context, instance *models.GatewayInstance, webhookURL string, events []string) error {
	return m.Called(ctx, instance, webhookURL, events).Error(0)
}

type mockCRM struct {
	mock.Mock
}

func (m *mockCRM) UpsertContact(ctx context.Context, tenant *models.Tenant, phone, name string, tags []string) (*services.Contact, error) {
	args := m.Called(ctx, tenant, phone, name, tags)
	if contact, ok := args.Get(0).(*services.Contact); ok {
		return contact, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCRM) FindOrCreateConversation(ctx context.Context, tenant *models.Tenant, contactID string) (string, error) {
	args := m.Called(ctx, tenant, contactID)
	return args.String(0), args.Error(1)
}

func (m *mockCRM) PostInboundMessage(ctx context.Context, tenant *models.Tenant, conversationID, message string, attachments []string, date time.Time) (string, error) {
	args := m.Called(ctx, tenant, conversationID, message, attachments, date)
	return args.String(0), args.Error(1)
}

func (m *mockCRM) UpdateMessageStatus(ctx context.Context, tenant *models.Tenant, messageID, status string) error {
	return m.Called(ctx, tenant, messageID, status).Error(0)
}

type mockDedupe struct {
	mock.Mock
}

func (m *mockDedupe) Seen(ctx context.Context, instance, messageID string) (bool, error) {
	args := m.Called(ctx, instance, messageID)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, body []byte) error {
	return m.Called(ctx, body).Error(0)
}
