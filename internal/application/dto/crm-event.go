package dto

// CRMOutboundMessage is the webhook the CRM fires when an agent sends a
// message through the conversation provider.
type CRMOutboundMessage struct {
	Type                   string   `json:"type"`
	LocationID             string   `json:"locationId"`
	Phone                  string   `json:"phone"`
	Message                string   `json:"message"`
	Attachments            []string `json:"attachments"`
	MessageID              string   `json:"messageId"`
	ConversationProviderID string   `json:"conversationProviderId"`
}
