package http

import "time"

type createPaymentRequest struct {
	SourceAccountIdentifier string   `json:"source_account_identifier"`
	DestAccountIdentifier   string   `json:"dest_account_identifier"`
	Amount                  string   `json:"amount"`
	Currency                string   `json:"currency"`
	AdditionalApprovers     []string `json:"additional_approvers"`
	Memo                    string   `json:"memo"`
}

type approvalResponse struct {
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"status"`
}

type createPaymentResponse struct {
	TransactionID string             `json:"transaction_id"`
	Status        string             `json:"status"`
	Approvals     []approvalResponse `json:"approvals"`
}

type paymentStatusResponse struct {
	TransactionID string             `json:"transaction_id"`
	Status        string             `json:"status"`
	AmountSat     int64              `json:"amount_sat"`
	AssetCode     string             `json:"asset_code"`
	Memo          string             `json:"memo,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Approvals     []approvalResponse `json:"approvals"`
	Result        *resultResponse    `json:"result,omitempty"`
	Chain         *chainResponse     `json:"chain,omitempty"`
}

type resultResponse struct {
	TransactionHash string     `json:"transaction_hash,omitempty"`
	Success         *bool      `json:"success"`
	Message         string     `json:"message"`
	CompletedAt     *time.Time `json:"completed_at"`
}

type chainResponse struct {
	Confirmations int64 `json:"confirmations"`
	FeeSat        int64 `json:"fee_sat"`
	BlockHeight   int64 `json:"block_height"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// authyCallback is the OneTouch webhook body. The hidden details carry the
// routing keys planted when the approval request was dispatched.
type authyCallback struct {
	UUID            string `json:"uuid"`
	Status          string `json:"status"`
	ApprovalRequest struct {
		Transaction struct {
			HiddenDetails struct {
				TenantID      string `json:"tenant_id"`
				ChainType     string `json:"chain_type"`
				TransactionID string `json:"transaction_id"`
			} `json:"hidden_details"`
		} `json:"transaction"`
	} `json:"approval_request"`
}
