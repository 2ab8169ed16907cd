package domain

import "context"

// TransactionRepository persists the TransactionRequest aggregate and its
// paired response record. Approver mutation and quorum reads are serialized
// per request by the implementation (row-level locking).
type TransactionRepository interface {
	// CreateRequest stores the request, its approvers and the placeholder
	// response atomically.
	CreateRequest(request *TransactionRequest, response *TransactionResponse) error
	GetRequest(transactionID string) (*TransactionRequest, error)
	// GetRequestLocked reads the request and its approvers while holding the
	// request row lock, serializing against concurrent status transitions.
	GetRequestLocked(transactionID string) (*TransactionRequest, error)
	GetResponse(transactionID string) (*TransactionResponse, error)
	// UpdateApproverStatus transitions the approver matched by correlation id
	// to a terminal status, only if it is still PENDING. Returns false when
	// no pending approver matched (duplicate or late delivery).
	UpdateApproverStatus(transactionID, approvalRequestID string, status ApprovalStatus) (bool, error)
	// SetApproverStatus records a terminal status for an approver by id,
	// used for implicit approvals at dispatch time.
	SetApproverStatus(approverID string, status ApprovalStatus) error
	// SetApproverCorrelation stores the push provider's correlation id once
	// the approval request has been dispatched.
	SetApproverCorrelation(approverID, approvalRequestID string) error
	// ClaimSubmission atomically marks the response as being submitted.
	// Returns false if the response is already claimed or resolved, making
	// submission idempotent under event redelivery.
	ClaimSubmission(transactionID string) (bool, error)
	// ResolveResponse records the terminal outcome. The response is immutable
	// afterwards.
	ResolveResponse(response *TransactionResponse) error
}

type AccountRepository interface {
	GetByIdentifier(tenantID, identifier string) (*Account, error)
	GetByID(accountID string) (*Account, error)
}

type TenantRepository interface {
	GetByCode(code string) (*Tenant, error)
}

// IdempotencyRepository records client-supplied idempotency keys, scoped per
// source account. Acquire is atomic: at most one caller wins a given key.
type IdempotencyRepository interface {
	Acquire(tenantID, key, accountID string) (bool, error)
}

// ChainAccount is the indexer's view of an address.
type ChainAccount struct {
	Address    string
	BalanceSat int64
}

// ChainTransaction is the indexer's view of a broadcast transaction.
type ChainTransaction struct {
	Hash          string
	Confirmations int64
	FeeSat        int64
	BlockHeight   int64
}

// ChainClient talks to the ledger-indexing service. All failures surface as
// *ChainServiceError.
type ChainClient interface {
	GetAccount(ctx context.Context, address string) (*ChainAccount, error)
	GetUtxos(ctx context.Context, address string) ([]UTXO, error)
	// GetFeeRate returns the recommended fee in satoshis per byte.
	GetFeeRate(ctx context.Context) (float64, error)
	GetChainHeight(ctx context.Context) (int64, error)
	GetTransaction(ctx context.Context, hash string) (*ChainTransaction, error)
	// Broadcast submits a signed transaction and returns its hash.
	Broadcast(ctx context.Context, signedTxHex string) (string, error)
}

// SignRequest crosses the secrets boundary: the unsigned transaction plus the
// account references the gateway uses to locate key material.
type SignRequest struct {
	TenantID        string
	SourceAccountID string
	DestAccountID   string
	UnsignedTxHex   string
	AmountSat       int64
}

// Signer is the only component permitted to touch private keys. Its output
// is untrusted and must be re-validated before broadcast.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) (signedTxHex string, err error)
}

// PushApprovalRequest asks the MFA provider to prompt one user.
type PushApprovalRequest struct {
	TenantID      string
	TransactionID string
	ChainType     string
	UserName      string
	AuthyID       int
	Reason        string
}

// PushApprovalService is the out-of-band MFA channel. SendApprovalRequest
// returns the provider's correlation id for the pending approval.
type PushApprovalService interface {
	HasRegisteredDevice(ctx context.Context, authyID int) (bool, error)
	SendApprovalRequest(ctx context.Context, req PushApprovalRequest) (string, error)
}
