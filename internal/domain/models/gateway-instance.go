package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &j)
	case string:
		return json.Unmarshal([]byte(v), &j)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// ConnectionState is the gateway-reported state of a WhatsApp connection.
// Transitions arrive only via connection webhooks; the bridge never initiates
// one. Open is the only state in which outbound dispatch is possible.
type ConnectionState string

const (
	StateConnecting ConnectionState = "connecting"
	StateOpen       ConnectionState = "open"
	StateClosed     ConnectionState = "closed"
)

// ParseConnectionState maps the gateway's wire vocabulary onto the stored
// one. The gateway reports "close" on some versions and "closed" on others.
func ParseConnectionState(s string) (ConnectionState, bool) {
	switch s {
	case "connecting":
		return StateConnecting, true
	case "open":
		return StateOpen, true
	case "close", "closed":
		return StateClosed, true
	default:
		return "", false
	}
}

// Authorized projects the three-state connection vocabulary onto the
// two-state one shown to tenants.
func (s ConnectionState) Authorized() bool {
	return s == StateOpen
}

// GatewayInstance is one WhatsApp connection on the gateway, owned by exactly
// one tenant. The gateway routes webhooks by instance name, so the name is
// the natural primary key.
type GatewayInstance struct {
	Name            string          `json:"name" gorm:"column:name;primaryKey"`
	TenantID        string          `json:"tenantId" gorm:"column:tenant_id;index"`
	APIURL          string          `json:"apiUrl" gorm:"column:api_url"`
	APIKey          string          `json:"-" gorm:"column:api_key"`
	ConnectionState ConnectionState `json:"connectionState" gorm:"column:connection_state"`
	Authorized      bool            `json:"authorized" gorm:"column:authorized"`
	Data            JSONB           `json:"data" gorm:"type:jsonb"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
	Tenant          Tenant          `gorm:"foreignKey:TenantID" json:"-"`
}

func (GatewayInstance) TableName() string {
	return "gateway_instances"
}

// IsOpen reports whether the instance can dispatch messages right now.
func (i *GatewayInstance) IsOpen() bool {
	return i.ConnectionState == StateOpen
}
