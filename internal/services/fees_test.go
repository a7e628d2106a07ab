package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitPayment(t *testing.T) {
	cases := []struct {
		gross     string
		fee       string
		remaining string
	}{
		{gross: "1000.00", fee: "100.00", remaining: "900.00"},
		{gross: "333.33", fee: "33.33", remaining: "300.00"},
		{gross: "0.05", fee: "0.01", remaining: "0.04"},
		{gross: "19.99", fee: "2.00", remaining: "17.99"},
		{gross: "1250.555", fee: "125.06", remaining: "1125.50"},
	}

	for _, tc := range cases {
		t.Run(tc.gross, func(t *testing.T) {
			gross := decimal.RequireFromString(tc.gross)
			fee, remaining := SplitPayment(gross, DefaultPlatformFeeRate)
			if !fee.Equal(decimal.RequireFromString(tc.fee)) {
				t.Fatalf("expected fee %s, got %s", tc.fee, fee)
			}
			if !remaining.Equal(decimal.RequireFromString(tc.remaining)) {
				t.Fatalf("expected remaining %s, got %s", tc.remaining, remaining)
			}
			if !fee.Add(remaining).Equal(gross.Round(2)) {
				t.Fatalf("fee %s + remaining %s != gross %s", fee, remaining, gross.Round(2))
			}
		})
	}
}

func TestSplitPaymentKeepsSumForManyAmounts(t *testing.T) {
	for cents := int64(1); cents <= 5000; cents += 7 {
		gross := decimal.New(cents, -2)
		fee, remaining := SplitPayment(gross, DefaultPlatformFeeRate)
		if !fee.Add(remaining).Equal(gross) {
			t.Fatalf("gross %s: fee %s + remaining %s mismatch", gross, fee, remaining)
		}
		if !fee.Equal(gross.Mul(DefaultPlatformFeeRate).Round(2)) {
			t.Fatalf("gross %s: fee %s is not the rounded tenth", gross, fee)
		}
	}
}
