package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
)

type SendKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// SendResponse is what the gateway answers to a send call. Key.ID is the
// durable gateway message id used for status correlation.
type SendResponse struct {
	Key    SendKey `json:"key"`
	Status string  `json:"status"`
}

type TextMessage struct {
	Text string `json:"text"`
}

type MediaMessage struct {
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Caption   string `json:"caption"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
}

type Options struct {
	Delay       int    `json:"delay"`
	Presence    string `json:"presence"`
	LinkPreview bool   `json:"linkPreview"`
}

type SendPayload struct {
	Number       string        `json:"number"`
	MediaMessage *MediaMessage `json:"mediaMessage,omitempty"`
	TextMessage  *TextMessage  `json:"textMessage,omitempty"`
	Options      Options       `json:"options"`
}

type ConnectionStateResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		State        string `json:"state"`
	} `json:"instance"`
}

type WebhookConfig struct {
	URL             string   `json:"url"`
	WebhookByEvents bool     `json:"webhook_by_events"`
	Events          []string `json:"events"`
}

const (
	contentTypeJSON = "application/json"
	mimeTypeDefault = "application/octet-stream"
)

var mediaMimeTypes = map[string]string{
	"image":    "image/png",
	"audio":    "audio/mpeg",
	"video":    "video/mp4",
	"document": "application/pdf",
}

type EvolutionClient struct {
	Configs    *config.Config
	httpClient *http.Client
}

func NewEvolutionClient(configs *config.Config) *EvolutionClient {
	timeout := time.Duration(configs.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &EvolutionClient{
		Configs:    configs,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// baseURL prefers the instance's own endpoint and falls back to the
// deployment-wide gateway address.
func (ec *EvolutionClient) baseURL(instance *models.GatewayInstance) string {
	if instance.APIURL != "" {
		return strings.TrimSuffix(instance.APIURL, "/")
	}
	return strings.TrimSuffix(ec.Configs.EvolutionAPIBaseURL, "/")
}

func (ec *EvolutionClient) apiKey(instance *models.GatewayInstance) string {
	if instance.APIKey != "" {
		return instance.APIKey
	}
	return ec.Configs.EvolutionAPIKey
}

func (ec *EvolutionClient) sendRequest(ctx context.Context, method, requestUrl, apiKey string, payloadBytes []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, requestUrl, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Content-Type", contentTypeJSON)
	req.Header.Add("apikey", apiKey)

	resp, err := ec.httpClient.Do(req)
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

func (ec *EvolutionClient) SendText(ctx context.Context, instance *models.GatewayInstance, number, text string) (*SendResponse, error) {
	requestUrl := fmt.Sprintf("%s/message/sendText/%s", ec.baseURL(instance), instance.Name)

	body := SendPayload{
		Number: number,
		TextMessage: &TextMessage{
			Text: text,
		},
		Options: Options{
			Delay:       0,
			Presence:    "composing",
			LinkPreview: true,
		},
	}

	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var response SendResponse
	if err := ec.sendRequest(ctx, http.MethodPost, requestUrl, ec.apiKey(instance), payloadBytes, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (ec *EvolutionClient) SendMedia(ctx context.Context, instance *models.GatewayInstance, number, mediaType, mediaURL, caption, fileName string) (*SendResponse, error) {
	requestUrl := fmt.Sprintf("%s/message/sendMedia/%s", ec.baseURL(instance), instance.Name)

	mimeType := mediaMimeTypes[mediaType]
	if mimeType == "" {
		mimeType = mimeTypeDefault
	}

	body := SendPayload{
		Number: number,
		MediaMessage: &MediaMessage{
			MediaType: mediaType,
			MimeType:  mimeType,
			Caption:   caption,
			Media:     mediaURL,
			FileName:  fileName,
		},
		Options: Options{
			Delay:    0,
			Presence: "composing",
		},
	}

	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var response SendResponse
	if err := ec.sendRequest(ctx, http.MethodPost, requestUrl, ec.apiKey(instance), payloadBytes, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (ec *EvolutionClient) GetConnectionState(ctx context.Context, instance *models.GatewayInstance) (models.ConnectionState, error) {
	requestUrl := fmt.Sprintf("%s/instance/connectionState/%s", ec.baseURL(instance), instance.Name)

	var response ConnectionStateResponse
	if err := ec.sendRequest(ctx, http.MethodGet, requestUrl, ec.apiKey(instance), nil, &response); err != nil {
		return "", err
	}

	state, ok := models.ParseConnectionState(response.Instance.State)
	if !ok {
		return "", fmt.Errorf("gateway reported unknown connection state %q for instance %s", response.Instance.State, instance.Name)
	}
	return state, nil
}

func (ec *EvolutionClient) SetWebhook(ctx context.Context, instance *models.GatewayInstance, webhookURL string, events []string) error {
	requestUrl := fmt.Sprintf("%s/webhook/set/%s", ec.baseURL(instance), instance.Name)

	body := WebhookConfig{
		URL:             webhookURL,
		WebhookByEvents: false,
		Events:          events,
	}

	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return ec.sendRequest(ctx, http.MethodPost, requestUrl, ec.apiKey(instance), payloadBytes, nil)
}
