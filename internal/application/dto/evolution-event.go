package dto

import (
	"encoding/json"
	"fmt"
)

const (
	EventMessagesUpsert   = "messages.upsert"
	EventMessagesUpdate   = "messages.update"
	EventConnectionUpdate = "connection.update"
)

// EvolutionEvent is the envelope the gateway posts to the webhook receiver.
// Data stays raw until the event discriminant picks a payload type, so
// unknown event families can be acknowledged without being trusted.
type EvolutionEvent struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type ExtendedTextMessage struct {
	Text string `json:"text"`
}

type MediaMessage struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
	Caption  string `json:"caption"`
	FileName string `json:"fileName"`
}

type MessageContent struct {
	Conversation        string               `json:"conversation"`
	ExtendedTextMessage *ExtendedTextMessage `json:"extendedTextMessage"`
	ImageMessage        *MediaMessage        `json:"imageMessage"`
	VideoMessage        *MediaMessage        `json:"videoMessage"`
	AudioMessage        *MediaMessage        `json:"audioMessage"`
	DocumentMessage     *MediaMessage        `json:"documentMessage"`
}

type MessageUpsertData struct {
	Key              MessageKey     `json:"key"`
	PushName         string         `json:"pushName"`
	Message          MessageContent `json:"message"`
	MessageType      string         `json:"messageType"`
	MessageTimestamp int64          `json:"messageTimestamp"`
}

type ConnectionUpdateData struct {
	State        string `json:"state"`
	StatusReason int    `json:"statusReason"`
}

// MessageUpdateData carries a delivery/read receipt. Depending on the gateway
// version the message id arrives as keyId or messageId.
type MessageUpdateData struct {
	KeyID     string `json:"keyId"`
	MessageID string `json:"messageId"`
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	Status    string `json:"status"`
}

func (d *MessageUpdateData) GatewayMessageID() string {
	if d.KeyID != "" {
		return d.KeyID
	}
	return d.MessageID
}

func (e *EvolutionEvent) MessageUpsert() (*MessageUpsertData, error) {
	if e.Event != EventMessagesUpsert {
		return nil, fmt.Errorf("event %q is not a message upsert", e.Event)
	}
	var data MessageUpsertData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode message upsert data: %w", err)
	}
	return &data, nil
}

func (e *EvolutionEvent) ConnectionUpdate() (*ConnectionUpdateData, error) {
	if e.Event != EventConnectionUpdate {
		return nil, fmt.Errorf("event %q is not a connection update", e.Event)
	}
	var data ConnectionUpdateData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode connection update data: %w", err)
	}
	return &data, nil
}

func (e *EvolutionEvent) MessageUpdate() (*MessageUpdateData, error) {
	if e.Event != EventMessagesUpdate {
		return nil, fmt.Errorf("event %q is not a message update", e.Event)
	}
	var data MessageUpdateData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode message update data: %w", err)
	}
	return &data, nil
}
