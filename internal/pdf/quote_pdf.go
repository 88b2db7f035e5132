package pdf

import (
	"bytes"
	"fmt"

	"lustre-backend/internal/model"

	"github.com/jung-kurt/gofpdf"
)

// QuoteRenderer turns a quote into a printable PDF document.
type QuoteRenderer interface {
	RenderQuote(quote *model.Quote, org *model.Organisation) ([]byte, error)
}

type quoteRenderer struct{}

func NewQuoteRenderer() QuoteRenderer {
	return &quoteRenderer{}
}

const currencySymbol = "£" // GBP

// RenderQuote produces an A4 document: organisation letterhead, client and
// property details, the priced body (fixed price or itemised table with add-ons
// grouped separately) and the VAT breakdown.
func (r *quoteRenderer) RenderQuote(quote *model.Quote, org *model.Organisation) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()
	translate := doc.UnicodeTranslatorFromDescriptor("")

	// Letterhead
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, translate(org.Name), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(100, 100, 100)
	for _, line := range letterheadLines(org) {
		doc.CellFormat(0, 4.5, translate(line), "", 1, "L", false, 0, "")
	}
	doc.SetTextColor(0, 0, 0)
	doc.Ln(6)

	// Quote header
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 8, translate(fmt.Sprintf("Quote %s", quote.QuoteNumber)), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, translate(quote.Title), "", 1, "L", false, 0, "")
	if quote.ValidUntil != nil {
		doc.SetFont("Helvetica", "I", 9)
		doc.CellFormat(0, 5, "Valid until "+quote.ValidUntil.Format("2 January 2006"), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)

	// Client and property
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(0, 5, "Prepared for", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	if quote.Client != nil {
		doc.CellFormat(0, 5, translate(quote.Client.FirstName+" "+quote.Client.LastName), "", 1, "L", false, 0, "")
	}
	if quote.Property != nil {
		address := quote.Property.AddressLine1
		if quote.Property.Town != "" {
			address += ", " + quote.Property.Town
		}
		if quote.Property.Postcode != "" {
			address += ", " + quote.Property.Postcode
		}
		doc.CellFormat(0, 5, translate(address), "", 1, "L", false, 0, "")
	}
	doc.Ln(6)

	if quote.PricingType == model.PricingTypeItemised {
		r.writeItemTable(doc, translate, quote.LineItems)
	}

	r.writeTotals(doc, translate, quote)

	if quote.Notes != "" {
		doc.Ln(6)
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(0, 5, "Notes", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.MultiCell(0, 4.5, translate(quote.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *quoteRenderer) writeItemTable(doc *gofpdf.Fpdf, translate func(string) string, items []model.QuoteLineItem) {
	writeHeader := func(label string) {
		doc.SetFont("Helvetica", "B", 9)
		doc.SetFillColor(240, 240, 240)
		doc.CellFormat(95, 7, label, "1", 0, "L", true, 0, "")
		doc.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
		doc.CellFormat(30, 7, "Unit price", "1", 0, "R", true, 0, "")
		doc.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")
	}
	writeRow := func(item model.QuoteLineItem) {
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(95, 6, translate(item.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 6, item.Quantity.StringFixed(2), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, translate(currencySymbol+item.UnitPrice.StringFixed(2)), "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 6, translate(currencySymbol+item.Amount.StringFixed(2)), "1", 1, "R", false, 0, "")
	}

	var core, addons []model.QuoteLineItem
	for _, item := range items {
		if item.IsAddon {
			addons = append(addons, item)
		} else {
			core = append(core, item)
		}
	}

	if len(core) > 0 {
		writeHeader("Service")
		for _, item := range core {
			writeRow(item)
		}
		doc.Ln(3)
	}
	if len(addons) > 0 {
		writeHeader("Optional extras")
		for _, item := range addons {
			writeRow(item)
		}
		doc.Ln(3)
	}
}

func (r *quoteRenderer) writeTotals(doc *gofpdf.Fpdf, translate func(string) string, quote *model.Quote) {
	writeLine := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(145, 6, label, "", 0, "R", false, 0, "")
		doc.CellFormat(35, 6, translate(currencySymbol+value), "", 1, "R", false, 0, "")
	}

	if quote.TaxRate.IsPositive() {
		writeLine("Subtotal", quote.Subtotal.StringFixed(2), false)
		writeLine(fmt.Sprintf("VAT (%s%%)", quote.TaxRate.StringFixed(0)), quote.TaxAmount.StringFixed(2), false)
	}
	writeLine("Total", quote.Total.StringFixed(2), true)
}

func letterheadLines(org *model.Organisation) []string {
	var lines []string
	address := org.AddressLine1
	if org.AddressLine2 != "" {
		address += ", " + org.AddressLine2
	}
	if org.Town != "" {
		address += ", " + org.Town
	}
	if org.Postcode != "" {
		address += " " + org.Postcode
	}
	if address != "" {
		lines = append(lines, address)
	}

	contact := ""
	if org.Phone != "" {
		contact = org.Phone
	}
	if org.Email != "" {
		if contact != "" {
			contact += "  |  "
		}
		contact += org.Email
	}
	if contact != "" {
		lines = append(lines, contact)
	}
	if org.Website != "" {
		lines = append(lines, org.Website)
	}
	if org.VatNumber != "" {
		lines = append(lines, "VAT No. "+org.VatNumber)
	}
	return lines
}
