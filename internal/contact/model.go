// Package contact handles the contact form and newsletter signup. Neither is
// stored; a submission waits a short simulated delay and, when email is
// configured, is forwarded to the salon inbox.
package contact

import (
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/nail-studio-api/internal/validation"
)

var validate = validation.New()

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = errors.New("contact: invalid request body")

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "contact: validation failed: " + validation.Summary(e.Fields)
}

// Message is a contact form submission.
type Message struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"max=150"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

func (m Message) normalize() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Phone:   strings.TrimSpace(m.Phone),
		Subject: strings.TrimSpace(m.Subject),
		Message: strings.TrimSpace(m.Message),
	}
}

// Subscription is a newsletter signup.
type Subscription struct {
	Email string `json:"email" validate:"required,email"`
}

// Receipt acknowledges a contact message.
type Receipt struct {
	Status     string    `json:"status"`
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// SubscriptionReceipt acknowledges a newsletter signup.
type SubscriptionReceipt struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Fields: validation.Fields(err)}
	}
	return nil
}
