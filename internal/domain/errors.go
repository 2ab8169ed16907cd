package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("duplicate idempotency key")
	ErrNotFound            = errors.New("not found")
)

// ValidationError rejects a request before any state is mutated. Messages
// carries every problem found, not just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ChainServiceError marks a failure of the ledger-indexing service. It is an
// internal dependency fault, never surfaced to the original caller directly.
type ChainServiceError struct {
	Op  string
	Err error
}

func (e *ChainServiceError) Error() string {
	return fmt.Sprintf("chain service: %s: %v", e.Op, e.Err)
}

func (e *ChainServiceError) Unwrap() error { return e.Err }

// SigningGatewayError marks a failure of the secrets-management signing
// boundary. Fatal for the submission attempt, recorded on the response.
type SigningGatewayError struct {
	Op  string
	Err error
}

func (e *SigningGatewayError) Error() string {
	return fmt.Sprintf("signing gateway: %s: %v", e.Op, e.Err)
}

func (e *SigningGatewayError) Unwrap() error { return e.Err }

// MfaError marks a failure of the push approval provider.
type MfaError struct {
	Op  string
	Err error
}

func (e *MfaError) Error() string {
	return fmt.Sprintf("mfa provider: %s: %v", e.Op, e.Err)
}

func (e *MfaError) Unwrap() error { return e.Err }

// FeeTooHighError guards against fee spikes: the network fee rate exceeded
// the configured ceiling, so no transaction may be built until it recovers.
type FeeTooHighError struct {
	FeePerByte float64
	Ceiling    float64
}

func (e *FeeTooHighError) Error() string {
	return fmt.Sprintf("current miner fee (%.1f sat/byte) exceeds the ceiling of %.1f sat/byte, try again later", e.FeePerByte, e.Ceiling)
}
