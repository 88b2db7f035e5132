package service

import (
	"github.com/shopspring/decimal"

	"lustre-backend/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// QuoteTotals is the VAT breakdown of a quote. total = subtotal + taxAmount always.
type QuoteTotals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// computeFixedTotals backs VAT out of a tax-inclusive price. The entered amount
// IS the total; subtotal and tax are derived by dividing out the rate, each
// rounded half-up to 2 decimal places.
func computeFixedTotals(inclusive decimal.Decimal, ratePercent decimal.Decimal, vatRegistered bool) QuoteTotals {
	if !vatRegistered || ratePercent.IsZero() {
		return QuoteTotals{Subtotal: inclusive, TaxAmount: decimal.Zero, Total: inclusive}
	}
	divisor := decimal.NewFromInt(1).Add(ratePercent.Div(oneHundred))
	subtotal := inclusive.Div(divisor).Round(2)
	taxAmount := inclusive.Sub(subtotal).Round(2)
	return QuoteTotals{Subtotal: subtotal, TaxAmount: taxAmount, Total: inclusive}
}

// computeItemisedTotals sums VAT-exclusive line items and adds tax on top.
// Each line amount is rounded to 2 decimals before summation; this matches the
// stored per-item amounts, so the displayed lines always sum to the subtotal.
// Note the direction is the opposite of fixed mode, which backs tax out of an
// inclusive price.
func computeItemisedTotals(items []model.QuoteLineItem, ratePercent decimal.Decimal, vatRegistered bool) QuoteTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}
	if !vatRegistered || ratePercent.IsZero() {
		return QuoteTotals{Subtotal: subtotal, TaxAmount: decimal.Zero, Total: subtotal}
	}
	taxAmount := subtotal.Mul(ratePercent).Div(oneHundred).Round(2)
	return QuoteTotals{Subtotal: subtotal, TaxAmount: taxAmount, Total: subtotal.Add(taxAmount)}
}
