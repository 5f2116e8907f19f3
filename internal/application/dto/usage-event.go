package dto

import "time"

const (
	UsageMessageReceived   = "message_received"
	UsageMessageDispatched = "message_dispatched"
	UsageStatusPushed      = "status_pushed"
)

// UsageEvent is the accounting record published to the bridge exchange after
// a message crosses the boundary in either direction.
type UsageEvent struct {
	Event      string    `json:"event"`
	TenantID   string    `json:"tenant_id"`
	Instance   string    `json:"instance"`
	Phone      string    `json:"phone"`
	MessageID  string    `json:"message_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
