package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/custodialabs/payment-service/internal/domain"
)

// Signer asks the secrets engine to sign an unsigned transaction. Key
// material lives in per-tenant paths and never crosses this boundary; only
// hex transactions do.
type Signer struct {
	cli *resty.Client
}

var _ domain.Signer = (*Signer)(nil)

func NewSigner(address, token string, timeout time.Duration) *Signer {
	cli := resty.New().
		SetBaseURL(address).
		SetTimeout(timeout).
		SetHeader("X-Vault-Token", token)

	return &Signer{cli: cli}
}

type signPayload struct {
	SourceAccountID string `json:"source_account_id"`
	DestAccountID   string `json:"dest_account_id"`
	AmountSat       int64  `json:"amount_sat"`
	UnsignedTx      string `json:"unsigned_transaction"`
}

type signResult struct {
	Data struct {
		SignedTransaction string `json:"signed_transaction"`
	} `json:"data"`
}

func (s *Signer) Sign(ctx context.Context, req domain.SignRequest) (string, error) {
	var result signResult
	resp, err := s.cli.R().
		SetContext(ctx).
		SetPathParam("tenantID", req.TenantID).
		SetBody(signPayload{
			SourceAccountID: req.SourceAccountID,
			DestAccountID:   req.DestAccountID,
			AmountSat:       req.AmountSat,
			UnsignedTx:      req.UnsignedTxHex,
		}).
		SetResult(&result).
		Post("/v1/bitcoin/{tenantID}/payments")
	if err != nil {
		return "", &domain.SigningGatewayError{Op: "sign", Err: err}
	}
	if resp.IsError() {
		return "", &domain.SigningGatewayError{
			Op:  "sign",
			Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	if result.Data.SignedTransaction == "" {
		return "", &domain.SigningGatewayError{Op: "sign", Err: errors.New("gateway returned no signed transaction")}
	}

	return result.Data.SignedTransaction, nil
}
