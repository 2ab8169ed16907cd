package models

import (
	"time"

	"github.com/custodialabs/payment-service/internal/domain"
)

type AccountModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	TenantID       string `gorm:"type:uuid;not null;index:idx_tenant_identifier,unique"`
	Identifier     string `gorm:"not null;index:idx_tenant_identifier,unique"`
	UserName       string
	Email          string
	BitcoinAddress string
	ApprovalMethod domain.ApprovalMethod `gorm:"not null"`
	AuthyID        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TenantModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Code      string `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time
}
