package email

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// SendQuoteEmailParams carries everything the quote email needs. The caller
// shapes the quote; this package only formats and sends.
type SendQuoteEmailParams struct {
	ClientEmail string
	ClientName  string

	QuoteNumber     string
	QuoteTitle      string
	QuoteTotal      decimal.Decimal
	QuoteValidUntil string // already formatted, empty when no validity date
	AcceptURL       string

	OrgName  string
	OrgEmail string // reply-to
	OrgPhone string
}

// Mailer is the outbound email seam. The quote lifecycle treats send failures
// as log-and-continue; tests swap in a recording fake.
type Mailer interface {
	SendQuoteEmail(params SendQuoteEmailParams) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a Mailer from SMTP_* environment variables.
func NewSMTPMailer() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "localhost"
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 587
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "hello@simplylustre.com"
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD")),
		from:   from,
	}
}

func (m *smtpMailer) SendQuoteEmail(params SendQuoteEmailParams) error {
	// Strip newlines to prevent email header injection
	orgName := strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(params.OrgName))

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, orgName)
	msg.SetHeader("To", params.ClientEmail)
	if params.OrgEmail != "" {
		msg.SetHeader("Reply-To", params.OrgEmail)
	}
	msg.SetHeader("Subject", fmt.Sprintf("Your quote from %s — %s", orgName, params.QuoteNumber))
	msg.SetBody("text/plain", quoteEmailText(params, orgName))
	msg.AddAlternative("text/html", quoteEmailHTML(params, orgName))

	return m.dialer.DialAndSend(msg)
}

func formatCurrency(amount decimal.Decimal) string {
	return "£" + amount.StringFixed(2)
}

func quoteEmailText(params SendQuoteEmailParams, orgName string) string {
	lines := []string{
		fmt.Sprintf("Hi %s,", params.ClientName),
		"",
		fmt.Sprintf("%s has sent you a quote.", orgName),
		"",
		fmt.Sprintf("Quote: %s", params.QuoteNumber),
		params.QuoteTitle,
		fmt.Sprintf("Total: %s", formatCurrency(params.QuoteTotal)),
	}
	if params.QuoteValidUntil != "" {
		lines = append(lines, fmt.Sprintf("Valid until: %s", params.QuoteValidUntil))
	}
	lines = append(lines,
		"",
		"View and accept your quote here:",
		params.AcceptURL,
		"",
		"If you have any questions, reply to this email.",
		"",
		fmt.Sprintf("— %s", orgName),
	)
	return strings.Join(lines, "\n")
}

func quoteEmailHTML(params SendQuoteEmailParams, orgName string) string {
	validUntil := ""
	if params.QuoteValidUntil != "" {
		validUntil = fmt.Sprintf("<p>Valid until: %s</p>", params.QuoteValidUntil)
	}
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>%s has sent you a quote.</p>
<p><strong>%s</strong><br>%s<br>Total: <strong>%s</strong></p>
%s
<p><a href="%s">View and accept your quote</a></p>
<p>If you have any questions, reply to this email.</p>
<p>— %s</p>
</body></html>`,
		params.ClientName, orgName, params.QuoteNumber, params.QuoteTitle,
		formatCurrency(params.QuoteTotal), validUntil, params.AcceptURL, orgName)
}
