package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func authTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.GatewayInstance{}, &models.MessageCorrelation{}))
	return db
}

func newAuthService(t *testing.T, tokenHandler http.HandlerFunc) (*CRMAuthService, *gorm.DB) {
	t.Helper()

	server := httptest.NewServer(tokenHandler)
	t.Cleanup(server.Close)

	db := authTestDB(t)
	auth := NewCRMAuthService(&config.Config{
		CRMAPIBaseURL:      server.URL,
		CRMClientID:        "client-1",
		CRMClientSecret:    "secret-1",
		HTTPTimeoutSeconds: 5,
	}, db)
	return auth, db
}

func TestExchangeCodePersistsTenant(t *testing.T) {
	var gotGrant, gotCode string
	auth, db := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.PostFormValue("grant_type")
		gotCode = r.PostFormValue("code")
		assert.Equal(t, "client-1", r.PostFormValue("client_id"))
		assert.Equal(t, "secret-1", r.PostFormValue("client_secret"))

		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"expires_in": 86400,
			"locationId": "loc_1",
			"companyId": "comp_1",
			"userType": "Location"
		}`))
	})

	tenant, err := auth.ExchangeCode(context.Background(), "install-code")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotGrant)
	assert.Equal(t, "install-code", gotCode)
	assert.Equal(t, "loc_1", tenant.ID)
	assert.Equal(t, "comp_1", tenant.CompanyID)
	assert.Equal(t, "access-1", tenant.AccessToken)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), tenant.TokenExpiresAt, time.Minute)

	stored, err := repositories.NewTenantRepository(db).FindById(context.Background(), "loc_1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
}

func TestExchangeCodeRequiresLocationId(t *testing.T) {
	auth, _ := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "access-1", "refresh_token": "refresh-1", "expires_in": 86400}`))
	})

	_, err := auth.ExchangeCode(context.Background(), "install-code")
	assert.Error(t, err)
}

func TestEnsureFreshSkipsTokensWithRunway(t *testing.T) {
	var calls int
	auth, _ := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	tenant := &models.Tenant{
		ID:             "loc_1",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, auth.EnsureFresh(context.Background(), tenant))
	assert.Zero(t, calls)
	assert.Equal(t, "access-1", tenant.AccessToken)
}

func TestEnsureFreshRefreshesNearExpiry(t *testing.T) {
	auth, db := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostFormValue("grant_type"))
		assert.Equal(t, "refresh-1", r.PostFormValue("refresh_token"))

		_, _ = w.Write([]byte(`{"access_token": "access-2", "refresh_token": "refresh-2", "expires_in": 86400}`))
	})

	tenant := &models.Tenant{
		ID:             "loc_1",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repositories.NewTenantRepository(db).Save(context.Background(), tenant))

	require.NoError(t, auth.EnsureFresh(context.Background(), tenant))
	assert.Equal(t, "access-2", tenant.AccessToken)
	assert.Equal(t, "refresh-2", tenant.RefreshToken)

	// The new pair must be durable before anyone uses it; a crash after the
	// grant must not strand the old pair in the database.
	stored, err := repositories.NewTenantRepository(db).FindById(context.Background(), "loc_1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored.AccessToken)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
}

func TestRefreshKeepsRefreshTokenWhenOmitted(t *testing.T) {
	auth, db := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "access-2", "expires_in": 86400}`))
	})

	tenant := &models.Tenant{
		ID:             "loc_1",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repositories.NewTenantRepository(db).Save(context.Background(), tenant))

	require.NoError(t, auth.Refresh(context.Background(), tenant))
	assert.Equal(t, "access-2", tenant.AccessToken)
	assert.Equal(t, "refresh-1", tenant.RefreshToken)
}

func TestRefreshFailureRequiresReauthorization(t *testing.T) {
	auth, _ := newAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	})

	tenant := &models.Tenant{
		ID:             "loc_1",
		RefreshToken:   "revoked",
		TokenExpiresAt: time.Now().Add(-time.Hour),
	}

	err := auth.Refresh(context.Background(), tenant)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReauthorizationRequired)
}
