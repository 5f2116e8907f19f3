package models

import "time"

// Tenant is one CRM location. It owns the OAuth credential pair used for
// every CRM call made on its behalf. The location id issued by the CRM is the
// primary key; no derived numeric key exists.
type Tenant struct {
	ID             string    `json:"id" gorm:"column:id;primaryKey"`
	CompanyID      string    `json:"companyId" gorm:"column:company_id"`
	AccessToken    string    `json:"-" gorm:"column:access_token;type:text"`
	RefreshToken   string    `json:"-" gorm:"column:refresh_token;type:text"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt" gorm:"column:token_expires_at"`
	CreatedAt      time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}
