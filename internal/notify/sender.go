package notify

import (
	"fmt"

	mail "gopkg.in/mail.v2"

	"github.com/padwatch/padwatch-data/internal/ledger"
)

// EmailSender delivers match notifications over SMTP.
// Nil-safe: when not configured, Send reports an error so rows are marked
// failed instead of silently dropped.
type EmailSender struct {
	dialer *mail.Dialer
	from   string
}

// NewEmailSender creates a sender. Returns nil if host is empty (built-in
// delivery disabled; an external notifier owns dispatch instead).
func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	if host == "" {
		return nil
	}
	return &EmailSender{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send emails one pending notification to its user.
func (s *EmailSender) Send(d ledger.PendingDelivery) error {
	if s == nil {
		return fmt.Errorf("email sender not configured")
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", d.Email)
	msg.SetHeader("Subject", buildSubject(d))
	msg.SetBody("text/plain", buildBody(d))

	return s.dialer.DialAndSend(msg)
}

func buildSubject(d ledger.PendingDelivery) string {
	if d.ListingArea != nil && *d.ListingArea != "" {
		return fmt.Sprintf("New listing in %s for $%d", *d.ListingArea, d.ListingPrice)
	}
	return fmt.Sprintf("New listing for $%d", d.ListingPrice)
}

func buildBody(d ledger.PendingDelivery) string {
	area := "your search area"
	if d.ListingArea != nil && *d.ListingArea != "" {
		area = *d.ListingArea
	}
	return fmt.Sprintf(
		"A new apartment matching your alert just appeared.\n\n"+
			"Area: %s\nPrice: $%d/month\nListing ref: %s\n\n"+
			"This is notification #%d for your alert.",
		area, d.ListingPrice, d.ListingExternalID, d.ID,
	)
}
