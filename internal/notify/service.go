package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/nail-studio-api/internal/booking"
	"github.com/wolfman30/nail-studio-api/internal/contact"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// Service turns booking and form events into emails. It satisfies
// booking.Notifier and contact.Notifier.
type Service struct {
	email  EmailSender
	inbox  string
	logger *logging.Logger
}

// NewService creates a notifier. inbox is the salon address that receives
// contact messages and booking copies; it may be empty.
func NewService(email EmailSender, inbox string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, inbox: strings.TrimSpace(inbox), logger: logger}
}

// BookingConfirmed emails the customer a summary and copies the salon.
func (s *Service) BookingConfirmed(ctx context.Context, c booking.Confirmation, customer booking.CustomerInfo) error {
	if s.email == nil {
		s.logger.Debug("notify: email not configured, skipping booking confirmation")
		return nil
	}

	body := bookingSummary(c, customer)
	if err := s.email.Send(ctx, EmailMessage{
		To:      customer.Email,
		ToName:  customer.FullName(),
		Subject: "Your appointment request at Polished Nail Studio",
		Body:    body,
	}); err != nil {
		return fmt.Errorf("notify: booking confirmation to customer: %w", err)
	}

	if s.inbox == "" {
		return nil
	}
	if err := s.email.Send(ctx, EmailMessage{
		To:      s.inbox,
		ReplyTo: customer.Email,
		Subject: fmt.Sprintf("New booking: %s on %s at %s", customer.FullName(), c.ScheduledDate, c.ScheduledTime),
		Body:    body,
	}); err != nil {
		return fmt.Errorf("notify: booking copy to salon: %w", err)
	}
	return nil
}

// ContactReceived forwards a contact form message to the salon inbox.
func (s *Service) ContactReceived(ctx context.Context, id string, msg contact.Message) error {
	if s.email == nil || s.inbox == "" {
		s.logger.Debug("notify: salon inbox not configured, skipping contact message", "id", id)
		return nil
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Website enquiry"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", msg.Name, msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", msg.Phone)
	}
	fmt.Fprintf(&b, "Reference: %s\n\n%s\n", id, msg.Message)

	if err := s.email.Send(ctx, EmailMessage{
		To:      s.inbox,
		ReplyTo: msg.Email,
		Subject: "Contact form: " + subject,
		Body:    b.String(),
	}); err != nil {
		return fmt.Errorf("notify: contact message: %w", err)
	}
	return nil
}

// NewsletterSignup sends the subscriber a welcome email.
func (s *Service) NewsletterSignup(ctx context.Context, email string) error {
	if s.email == nil {
		return nil
	}
	if err := s.email.Send(ctx, EmailMessage{
		To:      email,
		Subject: "Welcome to the Polished Nail Studio newsletter",
		Body:    "Thanks for signing up. We'll send seasonal offers and new designs a few times a month.",
	}); err != nil {
		return fmt.Errorf("notify: newsletter welcome: %w", err)
	}
	return nil
}

func bookingSummary(c booking.Confirmation, customer booking.CustomerInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", customer.FirstName)
	fmt.Fprintf(&b, "We received your appointment request for %s at %s.\n\n", c.ScheduledDate, c.ScheduledTime)
	b.WriteString("Services:\n")
	for _, name := range c.Services {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	fmt.Fprintf(&b, "\nEstimated total: $%.2f (%d min)\n", c.TotalPrice, c.TotalDuration)
	if c.Technician != "" {
		fmt.Fprintf(&b, "Technician: %s\n", c.Technician)
	} else {
		b.WriteString("Technician: first available\n")
	}
	if customer.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", customer.Notes)
	}
	fmt.Fprintf(&b, "\nConfirmation: %s\n", c.ID)
	return b.String()
}

var (
	_ booking.Notifier = (*Service)(nil)
	_ contact.Notifier = (*Service)(nil)
)
