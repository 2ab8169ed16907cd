package publisher

// Topic and consumer-group naming for the approval-changed bus. One topic per
// blockchain type so each chain's orchestrator consumes only its own events.
const (
	BitcoinApprovalTopic  = "bitcoin-transaction-approvals"
	ApprovalConsumerGroup = "payment-service"
)
