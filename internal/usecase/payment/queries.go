package payment

import (
	"context"

	"go.uber.org/zap"
)

// GetPaymentStatus returns the aggregate state plus, once broadcast, the
// indexer's view of the transaction. Indexer failures degrade the answer
// instead of failing it.
func (uc *DefaultPaymentUsecase) GetPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusOutput, error) {
	request, err := uc.Transactions.GetRequest(transactionID)
	if err != nil {
		return nil, err
	}
	response, err := uc.Transactions.GetResponse(transactionID)
	if err != nil {
		return nil, err
	}

	output := &PaymentStatusOutput{
		TransactionID: request.ID,
		Status:        request.Status(response.Resolved()),
		AmountSat:     request.AmountSat,
		AssetCode:     request.AssetCode,
		Memo:          request.Memo,
		CreatedAt:     request.CreatedAt,
		Approvals:     approvalViews(request.Approvers),
	}

	if response.Resolved() {
		output.Response = &ResponseView{
			TransactionHash:   response.TransactionHash,
			SignedTransaction: response.SignedTransaction,
			Success:           response.Success,
			Result:            response.Result,
			CompletedAt:       response.CompletedAt,
		}
	}

	if response.TransactionHash != "" {
		chainTx, err := uc.Chain.GetTransaction(ctx, response.TransactionHash)
		if err != nil {
			uc.Log.Warn("failed to enrich payment status from indexer",
				zap.String("transaction_id", transactionID),
				zap.String("transaction_hash", response.TransactionHash),
				zap.Error(err))
		} else {
			output.Chain = &ChainView{
				Confirmations: chainTx.Confirmations,
				FeeSat:        chainTx.FeeSat,
				BlockHeight:   chainTx.BlockHeight,
			}
		}
	}

	return output, nil
}
