package service

import (
	"testing"

	"lustre-backend/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeFixedTotals(t *testing.T) {
	tests := []struct {
		name          string
		inclusive     string
		rate          string
		vatRegistered bool
		wantSubtotal  string
		wantTax       string
		wantTotal     string
	}{
		{
			name:          "standard rate backs VAT out of inclusive price",
			inclusive:     "120.00",
			rate:          "20",
			vatRegistered: true,
			wantSubtotal:  "100.00",
			wantTax:       "20.00",
			wantTotal:     "120.00",
		},
		{
			name:          "awkward amount rounds half up",
			inclusive:     "99.99",
			rate:          "20",
			vatRegistered: true,
			wantSubtotal:  "83.33",
			wantTax:       "16.66",
			wantTotal:     "99.99",
		},
		{
			name:          "unregistered organisation passes the price through",
			inclusive:     "120.00",
			rate:          "20",
			vatRegistered: false,
			wantSubtotal:  "120.00",
			wantTax:       "0.00",
			wantTotal:     "120.00",
		},
		{
			name:          "zero rate behaves like unregistered",
			inclusive:     "50.00",
			rate:          "0",
			vatRegistered: true,
			wantSubtotal:  "50.00",
			wantTax:       "0.00",
			wantTotal:     "50.00",
		},
		{
			name:          "reduced rate",
			inclusive:     "105.00",
			rate:          "5",
			vatRegistered: true,
			wantSubtotal:  "100.00",
			wantTax:       "5.00",
			wantTotal:     "105.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeFixedTotals(dec(tt.inclusive), dec(tt.rate), tt.vatRegistered)
			assertTotals(t, got, tt.wantSubtotal, tt.wantTax, tt.wantTotal)
		})
	}
}

func TestComputeItemisedTotals(t *testing.T) {
	items := func(amounts ...string) []model.QuoteLineItem {
		result := make([]model.QuoteLineItem, 0, len(amounts))
		for _, a := range amounts {
			result = append(result, model.QuoteLineItem{Amount: dec(a)})
		}
		return result
	}

	tests := []struct {
		name          string
		items         []model.QuoteLineItem
		rate          string
		vatRegistered bool
		wantSubtotal  string
		wantTax       string
		wantTotal     string
	}{
		{
			name:          "tax added on top of summed lines",
			items:         items("50.00", "50.00"),
			rate:          "20",
			vatRegistered: true,
			wantSubtotal:  "100.00",
			wantTax:       "20.00",
			wantTotal:     "120.00",
		},
		{
			name:          "pre-rounded line amounts sum exactly",
			items:         items("33.33", "33.33", "33.33"),
			rate:          "20",
			vatRegistered: true,
			wantSubtotal:  "99.99",
			wantTax:       "20.00",
			wantTotal:     "119.99",
		},
		{
			name:          "unregistered organisation adds no tax",
			items:         items("40.00", "25.50"),
			rate:          "20",
			vatRegistered: false,
			wantSubtotal:  "65.50",
			wantTax:       "0.00",
			wantTotal:     "65.50",
		},
		{
			name:          "no items gives a zero quote",
			items:         nil,
			rate:          "20",
			vatRegistered: true,
			wantSubtotal:  "0.00",
			wantTax:       "0.00",
			wantTotal:     "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeItemisedTotals(tt.items, dec(tt.rate), tt.vatRegistered)
			assertTotals(t, got, tt.wantSubtotal, tt.wantTax, tt.wantTotal)
		})
	}
}

// Total must always equal subtotal plus tax, in both pricing modes.
func TestTotalsInvariant(t *testing.T) {
	rates := []string{"5", "12.5", "20"}
	amounts := []string{"0.01", "19.99", "1234.56", "999999.99"}

	for _, rate := range rates {
		for _, amount := range amounts {
			fixed := computeFixedTotals(dec(amount), dec(rate), true)
			if !fixed.Subtotal.Add(fixed.TaxAmount).Equal(fixed.Total) {
				t.Errorf("fixed %s @ %s%%: subtotal %s + tax %s != total %s",
					amount, rate, fixed.Subtotal, fixed.TaxAmount, fixed.Total)
			}

			itemised := computeItemisedTotals([]model.QuoteLineItem{{Amount: dec(amount)}}, dec(rate), true)
			if !itemised.Subtotal.Add(itemised.TaxAmount).Equal(itemised.Total) {
				t.Errorf("itemised %s @ %s%%: subtotal %s + tax %s != total %s",
					amount, rate, itemised.Subtotal, itemised.TaxAmount, itemised.Total)
			}
		}
	}
}

func TestSanitiseLineItems(t *testing.T) {
	inputs := []LineItemInput{
		{Description: "Deep clean kitchen", Quantity: 2, UnitPrice: 45},
		{Description: "   ", Quantity: 1, UnitPrice: 10},              // dropped: blank description
		{Description: "Oven clean", Quantity: -3, UnitPrice: 30},     // quantity clamped to 1
		{Description: "Carpet", Quantity: 1, UnitPrice: 5000000},     // price clamped to 0
		{Description: "Windows", Quantity: 20000, UnitPrice: 2.50},   // quantity clamped to 1
		{Description: "Add-on wax", Quantity: 1, UnitPrice: 15, IsAddon: true},
	}

	items := sanitiseLineItems(inputs)
	if len(items) != 5 {
		t.Fatalf("expected 5 retained items, got %d", len(items))
	}

	if items[0].Amount.StringFixed(2) != "90.00" {
		t.Errorf("expected first amount 90.00, got %s", items[0].Amount.StringFixed(2))
	}
	if items[1].Quantity.StringFixed(2) != "1.00" {
		t.Errorf("negative quantity should clamp to 1, got %s", items[1].Quantity.StringFixed(2))
	}
	if !items[2].UnitPrice.IsZero() {
		t.Errorf("oversized price should clamp to 0, got %s", items[2].UnitPrice)
	}
	if items[3].Quantity.StringFixed(2) != "1.00" {
		t.Errorf("oversized quantity should clamp to 1, got %s", items[3].Quantity.StringFixed(2))
	}
	if !items[4].IsAddon {
		t.Error("add-on flag should survive sanitisation")
	}

	// sort order reassigned densely over retained rows
	for i, item := range items {
		if item.SortOrder != i {
			t.Errorf("item %d: expected sort order %d, got %d", i, i, item.SortOrder)
		}
	}
}

func assertTotals(t *testing.T, got QuoteTotals, wantSubtotal, wantTax, wantTotal string) {
	t.Helper()
	if got.Subtotal.StringFixed(2) != wantSubtotal {
		t.Errorf("subtotal: got %s, want %s", got.Subtotal.StringFixed(2), wantSubtotal)
	}
	if got.TaxAmount.StringFixed(2) != wantTax {
		t.Errorf("tax: got %s, want %s", got.TaxAmount.StringFixed(2), wantTax)
	}
	if got.Total.StringFixed(2) != wantTotal {
		t.Errorf("total: got %s, want %s", got.Total.StringFixed(2), wantTotal)
	}
}
