package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/domain"
)

// CreatePayment validates the request, persists the aggregate and dispatches
// one approval per required signer. The caller gets the pending aggregate
// back; the outcome arrives asynchronously.
func (uc *DefaultPaymentUsecase) CreatePayment(ctx context.Context, input *CreatePaymentInput) (*PaymentOutput, error) {
	tenant, err := uc.Tenants.GetByCode(input.TenantCode)
	if err != nil {
		return nil, err
	}

	amountSat, err := domain.AsSatoshis(input.Amount, input.Currency)
	if err != nil {
		return nil, &domain.ValidationError{Messages: []string{err.Error()}}
	}
	if amountSat <= 0 {
		return nil, &domain.ValidationError{Messages: []string{"amount must be positive"}}
	}

	source, err := uc.Accounts.GetByIdentifier(tenant.ID, input.SourceIdentifier)
	if err != nil {
		return nil, err
	}
	dest, err := uc.Accounts.GetByIdentifier(tenant.ID, input.DestIdentifier)
	if err != nil {
		return nil, err
	}

	acquired, err := uc.Idempotency.Acquire(tenant.ID, input.IdempotencyKey, source.ID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrConflict
	}

	chainAccount, err := uc.Chain.GetAccount(ctx, source.BitcoinAddress)
	if err != nil {
		return nil, err
	}
	if chainAccount.BalanceSat < amountSat {
		return nil, domain.ErrInsufficientBalance
	}

	approverAccounts, err := uc.collectApprovers(ctx, tenant.ID, source, input.AdditionalApprovers)
	if err != nil {
		return nil, err
	}

	request := &domain.TransactionRequest{
		ID:              uuid.New().String(),
		TenantID:        tenant.ID,
		SourceAccountID: source.ID,
		DestAccountID:   dest.ID,
		AmountSat:       amountSat,
		AssetCode:       string(input.Currency),
		Memo:            input.Memo,
		RawPayload:      string(input.RawPayload),
		CreatedAt:       time.Now(),
	}
	for _, account := range approverAccounts {
		request.Approvers = append(request.Approvers, domain.Approver{
			ID:        uuid.New().String(),
			AccountID: account.ID,
			UserName:  account.UserName,
			Email:     account.Email,
			Status:    domain.ApprovalPending,
		})
	}

	if err := uc.Transactions.CreateRequest(request, &domain.TransactionResponse{TransactionID: request.ID}); err != nil {
		return nil, err
	}

	uc.Metrics.RecordPaymentCreated(tenant.ID, request.AssetCode, amountSat, len(request.Approvers))
	uc.Log.Info("payment request created",
		zap.String("transaction_id", request.ID),
		zap.String("tenant_id", tenant.ID),
		zap.Int64("amount_sat", amountSat),
		zap.Int("approvers", len(request.Approvers)))

	uc.dispatchApprovals(ctx, tenant.ID, request, approverAccounts)

	return &PaymentOutput{
		TransactionID: request.ID,
		Status:        request.Status(false),
		Approvals:     approvalViews(request.Approvers),
	}, nil
}

// collectApprovers resolves the source plus any additional signers and
// validates every one of them, collecting all problems instead of stopping at
// the first so the caller sees the complete list.
func (uc *DefaultPaymentUsecase) collectApprovers(ctx context.Context, tenantID string, source *domain.Account, additional []string) ([]*domain.Account, error) {
	accounts := []*domain.Account{source}
	var problems []string

	for _, identifier := range additional {
		account, err := uc.Accounts.GetByIdentifier(tenantID, identifier)
		if err != nil {
			problems = append(problems, fmt.Sprintf("unknown approver account %q", identifier))
			continue
		}
		accounts = append(accounts, account)
	}

	for _, account := range accounts {
		switch account.ApprovalMethod {
		case domain.ApprovalMethodImplicit:
		case domain.ApprovalMethodAuthyPush:
			if account.AuthyID == 0 {
				problems = append(problems, fmt.Sprintf("approver %q has no push MFA registration", account.Identifier))
				continue
			}
			registered, err := uc.Push.HasRegisteredDevice(ctx, account.AuthyID)
			if err != nil {
				return nil, err
			}
			if !registered {
				problems = append(problems, fmt.Sprintf("approver %q has no registered authenticator device", account.Identifier))
			}
		default:
			problems = append(problems, fmt.Sprintf("approver %q uses unsupported approval method %s", account.Identifier, account.ApprovalMethod))
		}
	}

	if len(problems) > 0 {
		return nil, &domain.ValidationError{Messages: problems}
	}
	return accounts, nil
}

// dispatchApprovals runs after the aggregate is committed. A failed push
// leaves the approver PENDING and re-sendable; it never fails the creation.
func (uc *DefaultPaymentUsecase) dispatchApprovals(ctx context.Context, tenantID string, request *domain.TransactionRequest, accounts []*domain.Account) {
	for i := range request.Approvers {
		approver := &request.Approvers[i]
		account := accounts[i]

		switch account.ApprovalMethod {
		case domain.ApprovalMethodAuthyPush:
			correlationID, err := uc.Push.SendApprovalRequest(ctx, domain.PushApprovalRequest{
				TenantID:      tenantID,
				TransactionID: request.ID,
				ChainType:     domain.ChainTypeBitcoin,
				UserName:      account.UserName,
				AuthyID:       account.AuthyID,
				Reason:        fmt.Sprintf("Approve sending %d satoshis", request.AmountSat),
			})
			if err != nil {
				uc.Metrics.RecordError(tenantID, "push_dispatch")
				uc.Log.Error("failed to dispatch push approval",
					zap.String("transaction_id", request.ID),
					zap.String("approver_id", approver.ID),
					zap.Error(err))
				continue
			}
			if err := uc.Transactions.SetApproverCorrelation(approver.ID, correlationID); err != nil {
				uc.Log.Error("failed to store approval correlation id",
					zap.String("transaction_id", request.ID),
					zap.String("approver_id", approver.ID),
					zap.Error(err))
				continue
			}
			approver.ApprovalRequestID = correlationID

		case domain.ApprovalMethodImplicit:
			if err := uc.Transactions.SetApproverStatus(approver.ID, domain.ApprovalApproved); err != nil {
				uc.Log.Error("failed to record implicit approval",
					zap.String("transaction_id", request.ID),
					zap.String("approver_id", approver.ID),
					zap.Error(err))
				continue
			}
			approver.Status = domain.ApprovalApproved
			uc.publishApprovalEvent(tenantID, request.ID)
		}
	}
}
