package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/bitcoin"
	"github.com/custodialabs/payment-service/internal/domain"
)

// submit runs the irreversible pipeline: build, sign, re-validate, broadcast.
// Every failure is recorded on the response and swallowed; the original
// caller already holds an accepted response and learns the outcome by
// polling status.
func (uc *DefaultPaymentUsecase) submit(ctx context.Context, request *domain.TransactionRequest) {
	start := time.Now()

	source, err := uc.Accounts.GetByID(request.SourceAccountID)
	if err != nil {
		uc.failSubmission(request, start, "load_accounts", err)
		return
	}
	dest, err := uc.Accounts.GetByID(request.DestAccountID)
	if err != nil {
		uc.failSubmission(request, start, "load_accounts", err)
		return
	}

	utxos, err := uc.Chain.GetUtxos(ctx, source.BitcoinAddress)
	if err != nil {
		uc.failSubmission(request, start, "fetch_utxos", err)
		return
	}
	chainHeight, err := uc.Chain.GetChainHeight(ctx)
	if err != nil {
		uc.failSubmission(request, start, "chain_height", err)
		return
	}
	feeRate, err := uc.Chain.GetFeeRate(ctx)
	if err != nil {
		uc.failSubmission(request, start, "fee_estimate", err)
		return
	}

	unsigned, err := uc.Builder.Build(utxos, chainHeight, source.BitcoinAddress, dest.BitcoinAddress, request.AmountSat, feeRate)
	if err != nil {
		uc.failSubmission(request, start, "build", err)
		return
	}
	unsignedHex, err := bitcoin.EncodeTx(unsigned.Tx)
	if err != nil {
		uc.failSubmission(request, start, "encode", err)
		return
	}

	signedHex, err := uc.Signer.Sign(ctx, domain.SignRequest{
		TenantID:        request.TenantID,
		SourceAccountID: request.SourceAccountID,
		DestAccountID:   request.DestAccountID,
		UnsignedTxHex:   unsignedHex,
		AmountSat:       request.AmountSat,
	})
	if err != nil {
		uc.failSubmission(request, start, "sign", err)
		return
	}

	// The gateway's output is untrusted: re-parse and check it spends exactly
	// the outpoints we built before anything touches the network.
	if _, err := bitcoin.ValidateSignedTransaction(signedHex, unsigned.Tx); err != nil {
		uc.failSubmission(request, start, "verify_signed", err)
		return
	}

	hash, err := uc.Chain.Broadcast(ctx, signedHex)
	if err != nil {
		uc.failSubmission(request, start, "broadcast", err)
		return
	}

	now := time.Now()
	success := true
	if err := uc.Transactions.ResolveResponse(&domain.TransactionResponse{
		TransactionID:     request.ID,
		SignedTransaction: signedHex,
		TransactionHash:   hash,
		Success:           &success,
		Result:            "transaction broadcast",
		CompletedAt:       &now,
	}); err != nil {
		uc.Log.Error("broadcast succeeded but resolving the response failed",
			zap.String("transaction_id", request.ID),
			zap.String("transaction_hash", hash),
			zap.Error(err))
		return
	}

	uc.Metrics.RecordPaymentSubmitted(request.TenantID, unsigned.FeeSat, time.Since(start).Seconds())
	uc.Log.Info("payment submitted",
		zap.String("transaction_id", request.ID),
		zap.String("transaction_hash", hash),
		zap.Int64("fee_sat", unsigned.FeeSat))
}

func (uc *DefaultPaymentUsecase) failSubmission(request *domain.TransactionRequest, start time.Time, stage string, cause error) {
	now := time.Now()
	success := false

	uc.Metrics.RecordPaymentFailed(request.TenantID, stage, time.Since(start).Seconds())
	uc.Log.Error("payment submission failed",
		zap.String("transaction_id", request.ID),
		zap.String("stage", stage),
		zap.Error(cause))

	if err := uc.Transactions.ResolveResponse(&domain.TransactionResponse{
		TransactionID: request.ID,
		Success:       &success,
		Result:        cause.Error(),
		CompletedAt:   &now,
	}); err != nil {
		uc.Log.Error("failed to record submission failure",
			zap.String("transaction_id", request.ID),
			zap.Error(err))
	}
}
