package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/custodialabs/payment-service/internal/domain"
	"github.com/custodialabs/payment-service/internal/usecase/payment"
)

const (
	idempotencyKeyHeader = "X-Idempotency-Key"
	tenantCodeHeader     = "X-Tenant-Code"
)

type PaymentHandler struct {
	uc  payment.PaymentUsecase
	log *zap.Logger
}

func NewPaymentHandler(uc payment.PaymentUsecase, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{uc: uc, log: log}
}

func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	idempotencyKey := c.Get(idempotencyKeyHeader)
	if idempotencyKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "missing " + idempotencyKeyHeader + " header"})
	}
	tenantCode := c.Get(tenantCodeHeader)
	if tenantCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "missing " + tenantCodeHeader + " header"})
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "malformed request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid amount"})
	}
	currency, err := domain.ParseCurrencyType(req.Currency)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	// The body is reused by fiber after the handler returns.
	rawPayload := append([]byte(nil), c.Body()...)

	out, err := h.uc.CreatePayment(c.Context(), &payment.CreatePaymentInput{
		TenantCode:          tenantCode,
		IdempotencyKey:      idempotencyKey,
		SourceIdentifier:    req.SourceAccountIdentifier,
		DestIdentifier:      req.DestAccountIdentifier,
		Amount:              amount,
		Currency:            currency,
		AdditionalApprovers: req.AdditionalApprovers,
		Memo:                req.Memo,
		RawPayload:          rawPayload,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(createPaymentResponse{
		TransactionID: out.TransactionID,
		Status:        string(out.Status),
		Approvals:     toApprovalResponses(out.Approvals),
	})
}

func (h *PaymentHandler) GetPaymentStatus(c *fiber.Ctx) error {
	transactionID := c.Params("transactionId")

	out, err := h.uc.GetPaymentStatus(c.Context(), transactionID)
	if err != nil {
		return writeError(c, err)
	}

	resp := paymentStatusResponse{
		TransactionID: out.TransactionID,
		Status:        string(out.Status),
		AmountSat:     out.AmountSat,
		AssetCode:     out.AssetCode,
		Memo:          out.Memo,
		CreatedAt:     out.CreatedAt,
		Approvals:     toApprovalResponses(out.Approvals),
	}
	if out.Response != nil {
		resp.Result = &resultResponse{
			TransactionHash: out.Response.TransactionHash,
			Success:         out.Response.Success,
			Message:         out.Response.Result,
			CompletedAt:     out.Response.CompletedAt,
		}
	}
	if out.Chain != nil {
		resp.Chain = &chainResponse{
			Confirmations: out.Chain.Confirmations,
			FeeSat:        out.Chain.FeeSat,
			BlockHeight:   out.Chain.BlockHeight,
		}
	}

	return c.JSON(resp)
}

func toApprovalResponses(views []payment.ApprovalView) []approvalResponse {
	out := make([]approvalResponse, 0, len(views))
	for _, v := range views {
		out = append(out, approvalResponse{UserName: v.UserName, Email: v.Email, Status: string(v.Status)})
	}
	return out
}
