// Package mailer sends transactional emails through Resend. Every send is
// fire-and-forget: failures are logged and never surface to the business
// operation that triggered them.
package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"

	"github.com/cotizapp/cotiz/internal/member"
)

// Mailer sends receipts, reminders and proof decisions to members.
type Mailer struct {
	client  *resend.Client
	from    string
	members *member.Service
}

// New creates a Mailer. An empty apiKey disables sending; every method
// becomes a logged no-op so local setups work without credentials.
func New(apiKey, fromEmail string, members *member.Service) *Mailer {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &Mailer{
		client:  client,
		from:    fromEmail,
		members: members,
	}
}

// SendReceipt emails a payment receipt to a member.
func (m *Mailer) SendReceipt(ctx context.Context, memberID int64, amount float64, reference string) {
	subject := "Payment receipt"
	html := fmt.Sprintf(`
	<h2>Payment received</h2>
	<p>We recorded a payment of <strong>%.2f</strong> on your cotisation.</p>
	<p>Reference: %s</p>
	<p>Thank you!</p>`, amount, reference)
	m.send(ctx, memberID, subject, html)
}

// SendReminder emails an overdue reminder to a member.
func (m *Mailer) SendReminder(ctx context.Context, memberID int64, message string) {
	subject := "Cotisation reminder"
	html := fmt.Sprintf(`
	<h2>Reminder</h2>
	<p>%s</p>
	<p>Please settle your balance or contact your group manager.</p>`, message)
	m.send(ctx, memberID, subject, html)
}

// ProofValidated emails a member that their payment proof was accepted.
func (m *Mailer) ProofValidated(ctx context.Context, memberID int64, amount float64) {
	subject := "Payment proof validated"
	html := fmt.Sprintf(`
	<h2>Proof validated</h2>
	<p>Your payment proof of <strong>%.2f</strong> was validated and the amount
	was applied to your cotisation.</p>`, amount)
	m.send(ctx, memberID, subject, html)
}

// ProofRejected emails a member that their payment proof was refused.
func (m *Mailer) ProofRejected(ctx context.Context, memberID int64, amount float64, reason string) {
	subject := "Payment proof rejected"
	html := fmt.Sprintf(`
	<h2>Proof rejected</h2>
	<p>Your payment proof of <strong>%.2f</strong> was rejected.</p>
	<p>Reason: %s</p>
	<p>You can submit a new proof or contact your group manager.</p>`, amount, reason)
	m.send(ctx, memberID, subject, html)
}

func (m *Mailer) send(ctx context.Context, memberID int64, subject, html string) {
	if m.client == nil {
		log.Printf("mailer disabled, skipping %q for member %d", subject, memberID)
		return
	}

	recipient, err := m.members.GetByID(ctx, memberID)
	if err != nil {
		log.Printf("mailer: failed to load member %d: %v", memberID, err)
		return
	}
	if recipient.Email == nil || *recipient.Email == "" {
		log.Printf("mailer: member %d has no email, skipping %q", memberID, subject)
		return
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Cotiz <%s>", m.from),
		To:      []string{*recipient.Email},
		Subject: subject,
		Html:    html,
	}
	res, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Printf("mailer: failed to send %q to member %d: %v", subject, memberID, err)
		return
	}
	log.Printf("mailer: sent %q to member %d (message %s)", subject, memberID, res.Id)
}
