package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/infrastructure/authy"
	"github.com/custodialabs/payment-service/internal/usecase/payment"
)

const (
	signatureHeader = "X-Authy-Signature"
	nonceHeader     = "X-Authy-Signature-Nonce"
)

// WebhookHandler receives OneTouch decision callbacks. A bad signature is
// fatal for that delivery only; the provider retries on its own schedule.
type WebhookHandler struct {
	uc      payment.PaymentUsecase
	apiKey  string
	traceID func() string
	log     *zap.Logger
}

func NewWebhookHandler(uc payment.PaymentUsecase, apiKey string, log *zap.Logger) (*WebhookHandler, error) {
	traceID, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{uc: uc, apiKey: apiKey, traceID: traceID, log: log}, nil
}

func (h *WebhookHandler) HandleAuthyCallback(c *fiber.Ctx) error {
	log := h.log.With(zap.String("delivery_id", h.traceID()))

	signature := c.Get(signatureHeader)
	nonce := c.Get(nonceHeader)
	url := c.Protocol() + "://" + c.Hostname() + c.OriginalURL()
	if !authy.ValidateCallbackSignature(h.apiKey, nonce, c.Method(), url, c.Body(), signature) {
		log.Warn("webhook signature validation failed")
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid signature"})
	}

	var callback authyCallback
	if err := json.Unmarshal(c.Body(), &callback); err != nil {
		log.Warn("malformed webhook body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "malformed body"})
	}

	status, ok := approvalStatusFromCallback(callback.Status)
	if !ok {
		log.Warn("unknown webhook status", zap.String("status", callback.Status))
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "unknown status"})
	}

	hidden := callback.ApprovalRequest.Transaction.HiddenDetails
	if hidden.ChainType != domain.ChainTypeBitcoin {
		log.Info("webhook for other chain type ignored", zap.String("chain_type", hidden.ChainType))
		return c.SendStatus(fiber.StatusOK)
	}

	log.Info("approval webhook received",
		zap.String("transaction_id", hidden.TransactionID),
		zap.String("tenant_id", hidden.TenantID),
		zap.String("status", string(status)))

	if err := h.uc.RecordApproval(c.Context(), hidden.TransactionID, callback.UUID, status); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func approvalStatusFromCallback(status string) (domain.ApprovalStatus, bool) {
	switch status {
	case "approved":
		return domain.ApprovalApproved, true
	case "denied":
		return domain.ApprovalDenied, true
	case "expired":
		return domain.ApprovalTimedOut, true
	}
	return "", false
}
