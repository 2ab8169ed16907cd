package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/domain"
	publisher "github.com/custodialabs/payment-service/internal/infrastructure/kafka"
)

// RecordApproval applies a terminal status delivered out of band. A
// correlation id that matches no pending approver is a no-op: duplicate and
// late webhook deliveries are expected.
func (uc *DefaultPaymentUsecase) RecordApproval(ctx context.Context, transactionID, correlationID string, status domain.ApprovalStatus) error {
	if !status.Terminal() {
		return &domain.ValidationError{Messages: []string{fmt.Sprintf("status %q is not a terminal approval status", status)}}
	}

	matched, err := uc.Transactions.UpdateApproverStatus(transactionID, correlationID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.Log.Warn("approval for unknown transaction ignored",
				zap.String("transaction_id", transactionID))
			return nil
		}
		return err
	}
	if !matched {
		uc.Log.Info("approval matched no pending approver, ignoring",
			zap.String("transaction_id", transactionID),
			zap.String("correlation_id", correlationID))
		return nil
	}

	request, err := uc.Transactions.GetRequest(transactionID)
	if err != nil {
		return err
	}

	uc.Metrics.RecordApprovalEvent(request.TenantID, string(status))
	uc.Log.Info("approval recorded",
		zap.String("transaction_id", transactionID),
		zap.String("correlation_id", correlationID),
		zap.String("status", string(status)))

	uc.publishApprovalEvent(request.TenantID, transactionID)
	return nil
}

// ProcessApprovalEvent re-evaluates quorum for one request. It is safe under
// redelivery and reordering: the claim on the response row admits exactly one
// submission or rejection.
func (uc *DefaultPaymentUsecase) ProcessApprovalEvent(ctx context.Context, event domain.ApprovalEvent) error {
	request, err := uc.Transactions.GetRequestLocked(event.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.Log.Warn("approval event for unknown transaction ignored",
				zap.String("transaction_id", event.TransactionID))
			return nil
		}
		return err
	}

	if rejected, ok := request.FirstRejected(); ok {
		claimed, err := uc.Transactions.ClaimSubmission(request.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		now := time.Now()
		success := false
		uc.Metrics.RecordPaymentRejected(request.TenantID, string(rejected.Status))
		uc.Log.Info("payment rejected",
			zap.String("transaction_id", request.ID),
			zap.String("approver_id", rejected.ID),
			zap.String("status", string(rejected.Status)))
		return uc.Transactions.ResolveResponse(&domain.TransactionResponse{
			TransactionID: request.ID,
			Success:       &success,
			Result:        fmt.Sprintf("rejected: approver %s is %s", rejected.UserName, rejected.Status),
			CompletedAt:   &now,
		})
	}

	if !request.AllApproved() {
		return nil
	}

	claimed, err := uc.Transactions.ClaimSubmission(request.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	uc.submit(ctx, request)
	return nil
}

func (uc *DefaultPaymentUsecase) publishApprovalEvent(tenantID, transactionID string) {
	event := domain.ApprovalEvent{
		TenantID:      tenantID,
		TransactionID: transactionID,
		ChainType:     domain.ChainTypeBitcoin,
	}
	value, err := json.Marshal(event)
	if err != nil {
		uc.Log.Error("failed to marshal approval event", zap.Error(err))
		return
	}

	msg := domain.Message{Key: []byte(transactionID), Value: value}
	if err := uc.Publisher.Publish(publisher.BitcoinApprovalTopic, msg); err != nil {
		uc.Metrics.RecordError(tenantID, "event_publish")
		uc.Log.Error("failed to publish approval event",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}
