package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/bitcoin"
	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/metrics"
)

// PaymentUsecase drives a payment intent from creation through approval
// quorum to the irreversible build, sign and broadcast pipeline.
type PaymentUsecase interface {
	CreatePayment(ctx context.Context, input *CreatePaymentInput) (*PaymentOutput, error)
	RecordApproval(ctx context.Context, transactionID, correlationID string, status domain.ApprovalStatus) error
	ProcessApprovalEvent(ctx context.Context, event domain.ApprovalEvent) error
	GetPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusOutput, error)
	StartApprovalListener(ctx context.Context)
}

var _ PaymentUsecase = (*DefaultPaymentUsecase)(nil)

type DefaultPaymentUsecase struct {
	Transactions domain.TransactionRepository
	Accounts     domain.AccountRepository
	Tenants      domain.TenantRepository
	Idempotency  domain.IdempotencyRepository
	Chain        domain.ChainClient
	Signer       domain.Signer
	Push         domain.PushApprovalService
	Publisher    domain.PublisherPort
	Subscriber   domain.SubscriberPort
	Builder      *bitcoin.TransactionBuilder
	Metrics      *metrics.PaymentMetrics
	Log          *zap.Logger
}

func NewDefaultPaymentUsecase(
	transactions domain.TransactionRepository,
	accounts domain.AccountRepository,
	tenants domain.TenantRepository,
	idempotency domain.IdempotencyRepository,
	chain domain.ChainClient,
	signer domain.Signer,
	push domain.PushApprovalService,
	pub domain.PublisherPort,
	sub domain.SubscriberPort,
	builder *bitcoin.TransactionBuilder,
	m *metrics.PaymentMetrics,
	log *zap.Logger) *DefaultPaymentUsecase {

	return &DefaultPaymentUsecase{
		Transactions: transactions,
		Accounts:     accounts,
		Tenants:      tenants,
		Idempotency:  idempotency,
		Chain:        chain,
		Signer:       signer,
		Push:         push,
		Publisher:    pub,
		Subscriber:   sub,
		Builder:      builder,
		Metrics:      m,
		Log:          log,
	}
}
