package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evolutionTestClient(baseURL string) *EvolutionClient {
	return NewEvolutionClient(&config.Config{
		EvolutionAPIBaseURL: baseURL,
		EvolutionAPIKey:     "global-key",
		HTTPTimeoutSeconds:  5,
	})
}

func TestEvolutionSendText(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload SendPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":true,"id":"WAMID1"},"status":"PENDING"}`))
	}))
	defer server.Close()

	client := evolutionTestClient(server.URL)
	instance := &models.GatewayInstance{Name: "inst-1"}

	resp, err := client.SendText(context.Background(), instance, "5511999999999", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/message/sendText/inst-1", gotPath)
	assert.Equal(t, "global-key", gotKey)
	assert.Equal(t, "5511999999999", gotPayload.Number)
	require.NotNil(t, gotPayload.TextMessage)
	assert.Equal(t, "hello", gotPayload.TextMessage.Text)
	assert.Equal(t, "WAMID1", resp.Key.ID)
}

func TestEvolutionSendTextPrefersInstanceCredentials(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		_, _ = w.Write([]byte(`{"key":{"id":"WAMID1"}}`))
	}))
	defer server.Close()

	client := evolutionTestClient("http://unused.invalid")
	instance := &models.GatewayInstance{Name: "inst-1", APIURL: server.URL, APIKey: "instance-key"}

	_, err := client.SendText(context.Background(), instance, "5511999999999", "hello")
	require.NoError(t, err)
	assert.Equal(t, "instance-key", gotKey)
}

func TestEvolutionSendMedia(t *testing.T) {
	var gotPayload SendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"key":{"id":"WAMID2"}}`))
	}))
	defer server.Close()

	client := evolutionTestClient(server.URL)
	instance := &models.GatewayInstance{Name: "inst-1"}

	resp, err := client.SendMedia(context.Background(), instance, "5511999999999",
		"image", "https://cdn.example.com/a.jpg", "look", "a.jpg")
	require.NoError(t, err)

	require.NotNil(t, gotPayload.MediaMessage)
	assert.Equal(t, "image", gotPayload.MediaMessage.MediaType)
	assert.Equal(t, "image/png", gotPayload.MediaMessage.MimeType)
	assert.Equal(t, "look", gotPayload.MediaMessage.Caption)
	assert.Equal(t, "https://cdn.example.com/a.jpg", gotPayload.MediaMessage.Media)
	assert.Equal(t, "WAMID2", resp.Key.ID)
}

func TestEvolutionGetConnectionState(t *testing.T) {
	tests := []struct {
		wire    string
		want    models.ConnectionState
		wantErr bool
	}{
		{wire: "open", want: models.StateOpen},
		{wire: "close", want: models.StateClosed},
		{wire: "banana", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/instance/connectionState/inst-1", r.URL.Path)
				_, _ = w.Write([]byte(`{"instance":{"instanceName":"inst-1","state":"` + tt.wire + `"}}`))
			}))
			defer server.Close()

			client := evolutionTestClient(server.URL)
			state, err := client.GetConnectionState(context.Background(), &models.GatewayInstance{Name: "inst-1"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestEvolutionSetWebhook(t *testing.T) {
	var gotConfig WebhookConfig
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/set/inst-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotConfig))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := evolutionTestClient(server.URL)
	events := []string{"MESSAGES_UPSERT", "CONNECTION_UPDATE"}

	err := client.SetWebhook(context.Background(), &models.GatewayInstance{Name: "inst-1"},
		"https://bridge.example.com/webhooks/evolution", events)
	require.NoError(t, err)

	assert.Equal(t, "https://bridge.example.com/webhooks/evolution", gotConfig.URL)
	assert.False(t, gotConfig.WebhookByEvents)
	assert.Equal(t, events, gotConfig.Events)
}

func TestEvolutionReturnsAPIErrorOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"instance does not exist"}`))
	}))
	defer server.Close()

	client := evolutionTestClient(server.URL)
	_, err := client.SendText(context.Background(), &models.GatewayInstance{Name: "ghost"}, "5511999999999", "hi")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsServerError())
	assert.Contains(t, apiErr.Error(), "404")
}
