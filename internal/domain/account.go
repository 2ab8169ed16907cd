package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ApprovalMethod string

const (
	ApprovalMethodAuthyPush  ApprovalMethod = "AUTHY_PUSH"
	ApprovalMethodTotp       ApprovalMethod = "APP_TOTP"
	ApprovalMethodHostedTotp ApprovalMethod = "HOSTED_TOTP"
	ApprovalMethodImplicit   ApprovalMethod = "IMPLICIT"
)

func ParseApprovalMethod(s string) (ApprovalMethod, error) {
	switch ApprovalMethod(strings.ToUpper(s)) {
	case ApprovalMethodAuthyPush:
		return ApprovalMethodAuthyPush, nil
	case ApprovalMethodTotp:
		return ApprovalMethodTotp, nil
	case ApprovalMethodHostedTotp:
		return ApprovalMethodHostedTotp, nil
	case ApprovalMethodImplicit:
		return ApprovalMethodImplicit, nil
	}
	return "", fmt.Errorf("unknown approval method %q", s)
}

// Account is a custodial account held on behalf of an end user. The private
// key never leaves the signing gateway; the service only knows the address.
type Account struct {
	ID             string
	TenantID       string
	Identifier     string
	UserName       string
	Email          string
	BitcoinAddress string
	ApprovalMethod ApprovalMethod
	// AuthyID identifies the user at the push MFA provider. Zero when the
	// account has no push registration.
	AuthyID int
}

// Tenant is one client application of the gateway.
type Tenant struct {
	ID   string
	Code string
	Name string
}

// CurrencyType is the unit the caller expresses a payment amount in.
type CurrencyType string

const (
	CurrencyBTC      CurrencyType = "BTC"
	CurrencyMilliBTC CurrencyType = "MILLIBTC"
	CurrencySatoshi  CurrencyType = "SATOSHI"
)

func ParseCurrencyType(s string) (CurrencyType, error) {
	switch CurrencyType(strings.ToUpper(s)) {
	case CurrencyBTC:
		return CurrencyBTC, nil
	case CurrencyMilliBTC:
		return CurrencyMilliBTC, nil
	case CurrencySatoshi:
		return CurrencySatoshi, nil
	}
	return "", fmt.Errorf("unknown currency type %q", s)
}

// AsSatoshis converts an amount in the given unit to whole satoshis.
// Fractional satoshis are rejected rather than rounded.
func AsSatoshis(amount decimal.Decimal, currency CurrencyType) (int64, error) {
	var sat decimal.Decimal
	switch currency {
	case CurrencyBTC:
		sat = amount.Shift(8)
	case CurrencyMilliBTC:
		sat = amount.Shift(5)
	case CurrencySatoshi:
		sat = amount
	default:
		return 0, fmt.Errorf("unknown currency type %q", currency)
	}
	if !sat.IsInteger() {
		return 0, fmt.Errorf("amount %s %s is not a whole number of satoshis", amount, currency)
	}
	return sat.IntPart(), nil
}
