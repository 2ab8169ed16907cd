package models

import (
	"time"

	"github.com/custodialabs/payment-service/internal/domain"
)

type TransactionRequestModel struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	TenantID        string `gorm:"type:uuid;not null;index:idx_request_tenant"`
	SourceAccountID string `gorm:"type:uuid;not null;index:idx_request_source"`
	DestAccountID   string `gorm:"type:uuid;not null"`
	AmountSat       int64  `gorm:"not null"`
	AssetCode       string `gorm:"not null"`
	Memo            string
	RawPayload      string          `gorm:"type:jsonb"`
	Approvers       []ApproverModel `gorm:"foreignKey:TransactionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt       time.Time       `gorm:"index:idx_request_created_at"`
}

type ApproverModel struct {
	ID            string                `gorm:"primaryKey;type:uuid"`
	TransactionID string                `gorm:"type:uuid;not null;index:idx_approver_transaction"`
	AccountID     string                `gorm:"type:uuid;not null"`
	UserName      string
	Email         string
	Status        domain.ApprovalStatus `gorm:"not null"`
	// ApprovalRequestID correlates the approver with the MFA provider's
	// callback. Empty for implicit approvals.
	ApprovalRequestID string `gorm:"index:idx_approver_approval_request"`
	UpdatedAt         time.Time
}

type TransactionResponseModel struct {
	TransactionID     string `gorm:"primaryKey;type:uuid"`
	SignedTransaction string
	TransactionHash   string `gorm:"index:idx_response_tx_hash"`
	Success           *bool
	Result            string
	// SubmissionClaimedAt guards the build/sign/broadcast pipeline: the
	// claiming update only matches rows where it is still NULL.
	SubmissionClaimedAt *time.Time
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type IdempotencyKeyModel struct {
	TenantID  string `gorm:"primaryKey;type:uuid"`
	Key       string `gorm:"primaryKey"`
	AccountID string `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
}
