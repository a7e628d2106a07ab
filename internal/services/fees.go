package services

import "github.com/shopspring/decimal"

// DefaultPlatformFeeRate is the platform's cut of every session payment.
var DefaultPlatformFeeRate = decimal.RequireFromString("0.10")

// SplitPayment divides a gross amount into the platform fee, rounded to
// cents, and the coach's remainder. fee + remaining always equals gross.
func SplitPayment(gross, rate decimal.Decimal) (fee, remaining decimal.Decimal) {
	gross = gross.Round(2)
	fee = gross.Mul(rate).Round(2)
	remaining = gross.Sub(fee)
	return fee, remaining
}
