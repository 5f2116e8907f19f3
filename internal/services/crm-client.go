package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
)

type Contact struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

type contactUpsertPayload struct {
	LocationID string   `json:"locationId"`
	Phone      string   `json:"phone"`
	Name       string   `json:"name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type contactUpsertResponse struct {
	Contact Contact `json:"contact"`
}

type conversationSearchResponse struct {
	Conversations []struct {
		ID string `json:"id"`
	} `json:"conversations"`
}

type conversationCreatePayload struct {
	LocationID string `json:"locationId"`
	ContactID  string `json:"contactId"`
}

type conversationCreateResponse struct {
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
}

type inboundMessagePayload struct {
	Type                   string   `json:"type"`
	ConversationID         string   `json:"conversationId"`
	ConversationProviderID string   `json:"conversationProviderId"`
	Message                string   `json:"message"`
	Attachments            []string `json:"attachments,omitempty"`
	Date                   string   `json:"date"`
}

type inboundMessageResponse struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type messageStatusPayload struct {
	Status string `json:"status"`
}

// CRM message statuses accepted by the status update endpoint.
const (
	CRMStatusSent      = "sent"
	CRMStatusDelivered = "delivered"
	CRMStatusRead      = "read"
	CRMStatusFailed    = "failed"
)

// CRMService talks to the CRM conversation API on behalf of a tenant. Every
// call runs under that tenant's bearer token; the service refreshes the pair
// proactively near expiry and once more reactively when the CRM still
// answers unauthorized.
type CRMService struct {
	Configs    *config.Config
	Auth       *CRMAuthService
	httpClient *http.Client
}

func NewCRMService(configs *config.Config, auth *CRMAuthService) *CRMService {
	timeout := time.Duration(configs.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CRMService{
		Configs:    configs,
		Auth:       auth,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UpsertContact creates or updates the CRM contact keyed by phone and
// returns it with its tags, including the instance tag used for outbound
// routing.
func (cs *CRMService) UpsertContact(ctx context.Context, tenant *models.Tenant, phone, name string, tags []string) (*Contact, error) {
	payload := contactUpsertPayload{
		LocationID: tenant.ID,
		Phone:      phone,
		Name:       name,
		Tags:       tags,
	}

	var response contactUpsertResponse
	if err := cs.do(ctx, tenant, http.MethodPost, "/contacts/upsert", nil, payload, &response); err != nil {
		return nil, fmt.Errorf("failed to upsert contact %s: %w", phone, err)
	}
	if response.Contact.ID == "" {
		return nil, fmt.Errorf("contact upsert for %s returned no contact id", phone)
	}
	return &response.Contact, nil
}

// FindOrCreateConversation returns the contact's conversation id, creating
// the conversation when the search comes back empty.
func (cs *CRMService) FindOrCreateConversation(ctx context.Context, tenant *models.Tenant, contactID string) (string, error) {
	query := url.Values{}
	query.Set("locationId", tenant.ID)
	query.Set("contactId", contactID)

	var search conversationSearchResponse
	if err := cs.do(ctx, tenant, http.MethodGet, "/conversations/search", query, nil, &search); err != nil {
		return "", fmt.Errorf("failed to search conversations for contact %s: %w", contactID, err)
	}
	if len(search.Conversations) > 0 {
		return search.Conversations[0].ID, nil
	}

	payload := conversationCreatePayload{
		LocationID: tenant.ID,
		ContactID:  contactID,
	}
	var created conversationCreateResponse
	if err := cs.do(ctx, tenant, http.MethodPost, "/conversations", nil, payload, &created); err != nil {
		return "", fmt.Errorf("failed to create conversation for contact %s: %w", contactID, err)
	}
	if created.Conversation.ID == "" {
		return "", fmt.Errorf("conversation create for contact %s returned no id", contactID)
	}
	return created.Conversation.ID, nil
}

// PostInboundMessage adds a gateway message to the conversation and returns
// the CRM message id.
func (cs *CRMService) PostInboundMessage(ctx context.Context, tenant *models.Tenant, conversationID, message string, attachments []string, date time.Time) (string, error) {
	payload := inboundMessagePayload{
		Type:                   "SMS",
		ConversationID:         conversationID,
		ConversationProviderID: cs.Configs.CRMConversationProviderID,
		Message:                message,
		Attachments:            attachments,
		Date:                   date.UTC().Format(time.RFC3339),
	}

	var response inboundMessageResponse
	if err := cs.do(ctx, tenant, http.MethodPost, "/conversations/messages/inbound", nil, payload, &response); err != nil {
		return "", fmt.Errorf("failed to post inbound message to conversation %s: %w", conversationID, err)
	}
	return response.MessageID, nil
}

// UpdateMessageStatus pushes a delivery status onto an outbound CRM message.
func (cs *CRMService) UpdateMessageStatus(ctx context.Context, tenant *models.Tenant, messageID, status string) error {
	path := fmt.Sprintf("/conversations/messages/%s/status", messageID)
	if err := cs.do(ctx, tenant, http.MethodPut, path, nil, messageStatusPayload{Status: status}, nil); err != nil {
		return fmt.Errorf("failed to update status of message %s to %s: %w", messageID, status, err)
	}
	return nil
}

// do runs one authenticated CRM call. The token is refreshed proactively
// when it expires within the refresh horizon; an unauthorized answer
// triggers one reactive refresh and one retry of the original call, and a
// second unauthorized answer is terminal.
func (cs *CRMService) do(ctx context.Context, tenant *models.Tenant, method, path string, query url.Values, payload, out interface{}) error {
	if err := cs.Auth.EnsureFresh(ctx, tenant); err != nil {
		return err
	}

	retried := false
	for {
		err := cs.send(ctx, tenant.AccessToken, method, path, query, payload, out)
		if err == nil {
			return nil
		}

		apiErr, ok := AsAPIError(err)
		if !ok || !apiErr.IsUnauthorized() {
			return err
		}
		if retried {
			return fmt.Errorf("crm rejected refreshed credentials for location %s: %w", tenant.ID, ErrReauthorizationRequired)
		}

		if err := cs.Auth.Refresh(ctx, tenant); err != nil {
			return err
		}
		retried = true
	}
}

func (cs *CRMService) send(ctx context.Context, accessToken, method, path string, query url.Values, payload, out interface{}) error {
	requestUrl := strings.TrimSuffix(cs.Configs.CRMAPIBaseURL, "/") + path
	if len(query) > 0 {
		requestUrl += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestUrl, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)
	req.Header.Add("Version", cs.Configs.CRMAPIVersion)
	req.Header.Add("Accept", contentTypeJSON)
	if payload != nil {
		req.Header.Add("Content-Type", contentTypeJSON)
	}

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
