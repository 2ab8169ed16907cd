package domain

import (
	"time"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalDenied   ApprovalStatus = "DENIED"
	ApprovalTimedOut ApprovalStatus = "TIMED_OUT"
)

// Terminal reports whether the status can no longer change.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalDenied || s == ApprovalTimedOut
}

// RequestStatus is derived from the approver set and the response record,
// never stored.
type RequestStatus string

const (
	RequestAwaitingApprovals RequestStatus = "AWAITING_APPROVALS"
	RequestReadyToSubmit     RequestStatus = "READY_TO_SUBMIT"
	RequestRejected          RequestStatus = "REJECTED"
	RequestSubmitted         RequestStatus = "SUBMITTED"
)

// Approver is one required signer of a TransactionRequest. Its status moves
// from PENDING to exactly one terminal state.
type Approver struct {
	ID        string
	AccountID string
	UserName  string
	Email     string
	Status    ApprovalStatus
	// ApprovalRequestID is the correlation id of the out-of-band push
	// approval. Empty for implicit approvals.
	ApprovalRequestID string
}

// TransactionRequest is the aggregate root of one payment intent. It owns its
// approver list; both are loaded and saved as one unit. Immutable after
// creation except through the approver collection.
type TransactionRequest struct {
	ID              string
	TenantID        string
	SourceAccountID string
	DestAccountID   string
	AmountSat       int64
	AssetCode       string
	Memo            string
	// RawPayload keeps the original payment request JSON for audit and replay.
	RawPayload string
	Approvers  []Approver
	CreatedAt  time.Time
}

// Status derives the request state. resolved is true once the paired
// response has been resolved, success or failure; a resolved request is
// terminal and never resubmits, so it reports SUBMITTED unless an approver
// rejection already decided the outcome.
func (r *TransactionRequest) Status(resolved bool) RequestStatus {
	pending := false
	for _, a := range r.Approvers {
		switch a.Status {
		case ApprovalDenied, ApprovalTimedOut:
			return RequestRejected
		case ApprovalPending:
			pending = true
		}
	}
	if resolved {
		return RequestSubmitted
	}
	if pending {
		return RequestAwaitingApprovals
	}
	return RequestReadyToSubmit
}

// AllApproved reports whether quorum is satisfied.
func (r *TransactionRequest) AllApproved() bool {
	for _, a := range r.Approvers {
		if a.Status != ApprovalApproved {
			return false
		}
	}
	return len(r.Approvers) > 0
}

// FirstRejected returns the first approver holding a DENIED or TIMED_OUT
// status, if any.
func (r *TransactionRequest) FirstRejected() (Approver, bool) {
	for _, a := range r.Approvers {
		if a.Status == ApprovalDenied || a.Status == ApprovalTimedOut {
			return a, true
		}
	}
	return Approver{}, false
}

// TransactionResponse is the 1:1 outcome record of a TransactionRequest,
// created as a placeholder alongside the request and resolved exactly once.
type TransactionResponse struct {
	TransactionID     string
	SignedTransaction string
	TransactionHash   string
	Success           *bool
	Result            string
	CompletedAt       *time.Time
}

// Resolved reports whether the terminal outcome has been recorded.
func (r *TransactionResponse) Resolved() bool {
	return r.CompletedAt != nil
}

// ApprovalEvent notifies listeners that an approver status changed on a
// transaction request. Delivery is at-least-once and unordered.
type ApprovalEvent struct {
	TenantID      string `json:"tenant_id"`
	TransactionID string `json:"transaction_id"`
	ChainType     string `json:"chain_type"`
}

const ChainTypeBitcoin = "BITCOIN"
