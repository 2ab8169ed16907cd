package payment

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/domain"
	publisher "github.com/custodialabs/payment-service/internal/infrastructure/kafka"
)

// StartApprovalListener consumes approval-changed events until the context is
// cancelled. Run it from main as a background goroutine.
func (uc *DefaultPaymentUsecase) StartApprovalListener(ctx context.Context) {
	messages, err := uc.Subscriber.Subscribe(publisher.BitcoinApprovalTopic, publisher.ApprovalConsumerGroup)
	if err != nil {
		uc.Log.Error("failed to subscribe to approval events", zap.Error(err))
		return
	}

	uc.Log.Info("approval listener started", zap.String("topic", publisher.BitcoinApprovalTopic))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				uc.Log.Warn("approval event channel closed")
				return
			}

			var event domain.ApprovalEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				uc.Log.Error("failed to decode approval event", zap.Error(err))
				continue
			}
			if event.ChainType != domain.ChainTypeBitcoin {
				continue
			}

			if err := uc.ProcessApprovalEvent(ctx, event); err != nil {
				uc.Log.Error("failed to process approval event",
					zap.String("transaction_id", event.TransactionID),
					zap.Error(err))
			}
		}
	}
}
