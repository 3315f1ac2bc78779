package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/nail-studio-api/internal/observability/metrics"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

const (
	StatusReceived   = "received"
	StatusSubscribed = "subscribed"
)

const notifyTimeout = 30 * time.Second

// Notifier forwards submissions to the salon. Calls run in the background; a
// failure is logged and does not fail the submission.
type Notifier interface {
	ContactReceived(ctx context.Context, id string, msg Message) error
	NewsletterSignup(ctx context.Context, email string) error
}

// Service runs the simulated submissions.
type Service struct {
	delay    time.Duration
	notifier Notifier
	metrics  *metrics.FormMetrics
	logger   *logging.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// NewService creates a contact service. notifier and m may be nil.
func NewService(delay time.Duration, notifier Notifier, m *metrics.FormMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		delay:    delay,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit validates msg, waits the simulated delay and returns a receipt.
func (s *Service) Submit(ctx context.Context, msg Message) (Receipt, error) {
	msg = msg.normalize()
	if err := check(msg); err != nil {
		s.metrics.ObserveSubmission("contact", err)
		return Receipt{}, err
	}
	if err := s.wait(ctx); err != nil {
		s.metrics.ObserveSubmission("contact", err)
		return Receipt{}, err
	}

	receipt := Receipt{Status: StatusReceived, ID: uuid.NewString(), ReceivedAt: s.now().UTC()}
	s.logger.Info("contact message received", "id", receipt.ID, "subject", msg.Subject)
	if s.notifier != nil {
		s.background(ctx, func(ctx context.Context) {
			if err := s.notifier.ContactReceived(ctx, receipt.ID, msg); err != nil {
				s.logger.Warn("contact message not forwarded", "id", receipt.ID, "error", err)
			}
		})
	}
	s.metrics.ObserveSubmission("contact", nil)
	return receipt, nil
}

// Subscribe validates the address and simulates a signup.
func (s *Service) Subscribe(ctx context.Context, sub Subscription) (SubscriptionReceipt, error) {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	if err := check(sub); err != nil {
		s.metrics.ObserveSubmission("newsletter", err)
		return SubscriptionReceipt{}, err
	}
	if err := s.wait(ctx); err != nil {
		s.metrics.ObserveSubmission("newsletter", err)
		return SubscriptionReceipt{}, err
	}

	s.logger.Info("newsletter signup received")
	if s.notifier != nil {
		email := sub.Email
		s.background(ctx, func(ctx context.Context) {
			if err := s.notifier.NewsletterSignup(ctx, email); err != nil {
				s.logger.Warn("newsletter signup not forwarded", "error", err)
			}
		})
	}
	s.metrics.ObserveSubmission("newsletter", nil)
	return SubscriptionReceipt{Status: StatusSubscribed, Email: sub.Email}, nil
}

// Wait blocks until every forwarded submission has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// background runs fn detached from the request, bounded by notifyTimeout.
func (s *Service) background(ctx context.Context, fn func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
