package authy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/custodialabs/payment-service/internal/domain"
)

// PushService sends OneTouch approval requests and probes device
// registration. The hidden details ride along to the callback so the webhook
// can correlate the decision back to an approver.
type PushService struct {
	cli             *resty.Client
	secondsToExpire int
}

var _ domain.PushApprovalService = (*PushService)(nil)

func NewPushService(baseURL, apiKey string, secondsToExpire int, timeout time.Duration) *PushService {
	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("X-Authy-API-Key", apiKey)

	return &PushService{cli: cli, secondsToExpire: secondsToExpire}
}

type userStatusResult struct {
	Status struct {
		Registered bool  `json:"registered"`
		Devices    []any `json:"devices"`
	} `json:"status"`
	Success bool `json:"success"`
}

func (s *PushService) HasRegisteredDevice(ctx context.Context, authyID int) (bool, error) {
	var result userStatusResult
	resp, err := s.cli.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("authyID", strconv.Itoa(authyID)).
		Get("/protected/json/users/{authyID}/status")
	if err != nil {
		return false, &domain.MfaError{Op: "user status", Err: err}
	}
	if resp.StatusCode() == 404 {
		return false, nil
	}
	if resp.IsError() {
		return false, &domain.MfaError{
			Op:  "user status",
			Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), resp.String()),
		}
	}

	return result.Status.Registered || len(result.Status.Devices) > 0, nil
}

type approvalRequestPayload struct {
	Message         string            `json:"message"`
	Details         map[string]string `json:"details"`
	HiddenDetails   map[string]string `json:"hidden_details"`
	SecondsToExpire int               `json:"seconds_to_expire"`
}

type approvalRequestResult struct {
	ApprovalRequest struct {
		UUID string `json:"uuid"`
	} `json:"approval_request"`
	Success bool `json:"success"`
}

func (s *PushService) SendApprovalRequest(ctx context.Context, req domain.PushApprovalRequest) (string, error) {
	payload := approvalRequestPayload{
		Message: req.Reason,
		Details: map[string]string{
			"User": req.UserName,
		},
		HiddenDetails: map[string]string{
			"tenant_id":      req.TenantID,
			"chain_type":     req.ChainType,
			"transaction_id": req.TransactionID,
		},
		SecondsToExpire: s.secondsToExpire,
	}

	var result approvalRequestResult
	resp, err := s.cli.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetPathParam("authyID", strconv.Itoa(req.AuthyID)).
		Post("/onetouch/json/users/{authyID}/approval_requests")
	if err != nil {
		return "", &domain.MfaError{Op: "approval request", Err: err}
	}
	if resp.IsError() {
		return "", &domain.MfaError{
			Op:  "approval request",
			Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	if result.ApprovalRequest.UUID == "" {
		return "", &domain.MfaError{Op: "approval request", Err: errors.New("provider returned no approval request uuid")}
	}

	return result.ApprovalRequest.UUID, nil
}
