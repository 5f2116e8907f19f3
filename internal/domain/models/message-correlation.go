package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageCorrelation links the gateway message id produced by an outbound
// dispatch to the CRM message the dispatch originated from. Entries are
// written once after a successful send and never updated; delivery state
// flows straight to the CRM instead of being stored here. Rows disappear only
// when their instance is removed or the retention sweep claims them.
type MessageCorrelation struct {
	ID               string    `json:"id" gorm:"column:id;primaryKey"`
	GatewayMessageID string    `json:"gatewayMessageId" gorm:"column:gateway_message_id;uniqueIndex"`
	CRMMessageID     string    `json:"crmMessageId" gorm:"column:crm_message_id"`
	InstanceName     string    `json:"instanceName" gorm:"column:instance_name;index"`
	ContactPhone     string    `json:"contactPhone" gorm:"column:contact_phone"`
	CreatedAt        time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime"`

	Instance GatewayInstance `gorm:"foreignKey:InstanceName;references:Name;constraint:OnDelete:CASCADE" json:"-"`
}

func (MessageCorrelation) TableName() string {
	return "message_correlations"
}

func (mc *MessageCorrelation) BeforeCreate(tx *gorm.DB) error {
	if mc.ID == "" {
		mc.ID = uuid.NewString()
	}
	return nil
}
