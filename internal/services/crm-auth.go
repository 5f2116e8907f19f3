package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"gorm.io/gorm"
)

// refreshHorizon is how close to expiry a token may get before the next CRM
// call refreshes it first.
const refreshHorizon = 5 * time.Minute

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	LocationID   string `json:"locationId"`
	CompanyID    string `json:"companyId"`
	UserType     string `json:"userType"`
}

// CRMAuthService owns the OAuth credential lifecycle of a tenant: the install
// code exchange, the proactive refresh before expiry and the reactive refresh
// after an unauthorized answer. Concurrent refreshes for the same tenant are
// not coordinated; the last writer wins and both pairs are valid.
type CRMAuthService struct {
	Configs    *config.Config
	DB         *gorm.DB
	httpClient *http.Client
}

func NewCRMAuthService(configs *config.Config, db *gorm.DB) *CRMAuthService {
	timeout := time.Duration(configs.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CRMAuthService{
		Configs:    configs,
		DB:         db,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ExchangeCode trades a marketplace install code for a token pair and
// persists the tenant keyed by the location id the CRM reports.
func (as *CRMAuthService) ExchangeCode(ctx context.Context, code string) (*models.Tenant, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", as.Configs.CRMClientID)
	form.Set("client_secret", as.Configs.CRMClientSecret)
	form.Set("code", code)

	token, err := as.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	if token.LocationID == "" {
		return nil, fmt.Errorf("token exchange response carries no location id")
	}

	tenant := &models.Tenant{
		ID:             token.LocationID,
		CompanyID:      token.CompanyID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	tenantRepo := repositories.NewTenantRepository(as.DB)
	if err := tenantRepo.Save(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to persist tenant credentials: %w", err)
	}

	log.Printf("[OAUTH] - Installed location %s", tenant.ID)
	return tenant, nil
}

// EnsureFresh refreshes the tenant's token pair when it expires within the
// refresh horizon. Tokens with more runway are used as-is.
func (as *CRMAuthService) EnsureFresh(ctx context.Context, tenant *models.Tenant) error {
	if time.Until(tenant.TokenExpiresAt) > refreshHorizon {
		return nil
	}
	return as.Refresh(ctx, tenant)
}

// Refresh performs one refresh-token grant and persists the new pair before
// returning. A failed grant is terminal for the tenant's current operation.
func (as *CRMAuthService) Refresh(ctx context.Context, tenant *models.Tenant) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", as.Configs.CRMClientID)
	form.Set("client_secret", as.Configs.CRMClientSecret)
	form.Set("refresh_token", tenant.RefreshToken)

	token, err := as.requestToken(ctx, form)
	if err != nil {
		return fmt.Errorf("token refresh for location %s failed (%v): %w", tenant.ID, err, ErrReauthorizationRequired)
	}

	tenant.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		tenant.RefreshToken = token.RefreshToken
	}
	tenant.TokenExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	tenantRepo := repositories.NewTenantRepository(as.DB)
	if err := tenantRepo.UpdateTokens(ctx, tenant.ID, tenant.AccessToken, tenant.RefreshToken, tenant.TokenExpiresAt); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens for location %s: %w", tenant.ID, err)
	}

	log.Printf("[OAUTH] - Refreshed credentials for location %s", tenant.ID)
	return nil
}

func (as *CRMAuthService) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	requestUrl := strings.TrimSuffix(as.Configs.CRMAPIBaseURL, "/") + "/oauth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", contentTypeJSON)

	resp, err := as.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	var token TokenResponse
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access token")
	}
	return &token, nil
}
