package mappers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodialabs/payment-service/internal/domain"
)

func TestRequestMappingPreservesAggregate(t *testing.T) {
	request := &domain.TransactionRequest{
		ID:              "req-1",
		TenantID:        "tenant-1",
		SourceAccountID: "acc-1",
		DestAccountID:   "acc-2",
		AmountSat:       40_000,
		AssetCode:       "SATOSHI",
		Memo:            "invoice 42",
		RawPayload:      `{"amount":"40000"}`,
		CreatedAt:       time.Now().Truncate(time.Second),
		Approvers: []domain.Approver{
			{ID: "appr-1", AccountID: "acc-1", UserName: "alice", Status: domain.ApprovalPending, ApprovalRequestID: "corr-1"},
			{ID: "appr-2", AccountID: "acc-3", UserName: "carol", Status: domain.ApprovalApproved},
		},
	}

	model := ToGORMRequest(request)
	require.Len(t, model.Approvers, 2)
	// The foreign key is derived from the aggregate root, not the approver.
	require.Equal(t, "req-1", model.Approvers[0].TransactionID)

	back := ToDomainRequest(model)
	require.Equal(t, request, back)
}
