package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodialabs/payment-service/internal/domain"
)

type CreatePaymentInput struct {
	TenantCode          string
	IdempotencyKey      string
	SourceIdentifier    string
	DestIdentifier      string
	Amount              decimal.Decimal
	Currency            domain.CurrencyType
	AdditionalApprovers []string
	Memo                string
	// RawPayload is the original request body, stored verbatim for audit.
	RawPayload []byte
}

type ApprovalView struct {
	UserName string
	Email    string
	Status   domain.ApprovalStatus
}

type PaymentOutput struct {
	TransactionID string
	Status        domain.RequestStatus
	Approvals     []ApprovalView
}

type ResponseView struct {
	TransactionHash   string
	SignedTransaction string
	Success           *bool
	Result            string
	CompletedAt       *time.Time
}

type ChainView struct {
	Confirmations int64
	FeeSat        int64
	BlockHeight   int64
}

type PaymentStatusOutput struct {
	TransactionID string
	Status        domain.RequestStatus
	AmountSat     int64
	AssetCode     string
	Memo          string
	CreatedAt     time.Time
	Approvals     []ApprovalView
	Response      *ResponseView
	// Chain is populated once the transaction is broadcast and visible to the
	// indexer.
	Chain *ChainView
}

func approvalViews(approvers []domain.Approver) []ApprovalView {
	views := make([]ApprovalView, 0, len(approvers))
	for _, a := range approvers {
		views = append(views, ApprovalView{UserName: a.UserName, Email: a.Email, Status: a.Status})
	}
	return views
}
