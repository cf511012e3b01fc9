package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/echoworks/lead-intake/internal/entity"
)

// EmailSender is the subset of the Resend emails service the notifier uses.
type EmailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailRecorder notifies the sales inbox about every new lead.
type EmailRecorder struct {
	sender EmailSender
	from   string
	to     []string
}

// NewResendRecorder creates an EmailRecorder backed by the Resend API.
func NewResendRecorder(apiKey, from string, to []string) *EmailRecorder {
	client := resend.NewClient(apiKey)
	return NewEmailRecorder(client.Emails, from, to)
}

// NewEmailRecorder wires a recorder around any EmailSender (useful for tests).
func NewEmailRecorder(sender EmailSender, from string, to []string) *EmailRecorder {
	return &EmailRecorder{sender: sender, from: from, to: append([]string(nil), to...)}
}

// Record sends the notification email. The lead's address becomes the reply-to.
func (r *EmailRecorder) Record(ctx context.Context, record entity.LeadRecord) error {
	if r.sender == nil {
		return errors.New("email sender is not configured")
	}
	if len(r.to) == 0 {
		return errors.New("no notification recipients configured")
	}

	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      r.to,
		Subject: "New Lead Submission: " + record.FullName,
		Text:    formatLeadEmail(record),
		ReplyTo: record.Email,
	}

	if _, err := r.sender.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send lead notification: %w", err)
	}
	return nil
}

func formatLeadEmail(record entity.LeadRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", record.ReceivedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Full Name: %s\n", record.FullName)
	fmt.Fprintf(&b, "Email: %s\n", record.Email)
	fmt.Fprintf(&b, "Company: %s\n", record.CompanyOrNA())
	fmt.Fprintf(&b, "Budget: %s\n", record.BudgetOrNA())
	fmt.Fprintf(&b, "IP Address: %s\n", record.IPAddress)
	fmt.Fprintf(&b, "User Agent: %s\n", record.UserAgent)
	if record.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", record.RequestID)
	}
	b.WriteString("\n")
	b.WriteString(record.Message)
	b.WriteString("\n")
	return b.String()
}
