// Package contact reacts to contact.created events by running the
// notification strategies for a new lead in parallel.
package contact

import (
	"context"
	"strings"
	"time"

	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Strategy is a single notification capability executed for every new
// contact. Strategies are independent; the handler runs them in parallel.
type Strategy interface {
	Name() string
	Send(ctx context.Context, contact events.ContactCreated) error
}

// emailStrategy sends the welcome email. The actual mail delivery is left
// to the downstream mail provider; here we model its latency.
type emailStrategy struct {
	log *zap.Logger
}

func NewEmailStrategy(log *zap.Logger) Strategy {
	return &emailStrategy{log: log}
}

func (s *emailStrategy) Name() string { return "welcome-email" }

func (s *emailStrategy) Send(ctx context.Context, contact events.ContactCreated) error {
	s.log.Info("sending welcome email",
		zap.String("email", contact.Email),
		zap.String("name", contact.Name))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	s.log.Info("welcome email sent", zap.String("email", contact.Email))
	return nil
}

// salesStrategy alerts the sales team about the new lead.
type salesStrategy struct {
	log *zap.Logger
}

func NewSalesStrategy(log *zap.Logger) Strategy {
	return &salesStrategy{log: log}
}

func (s *salesStrategy) Name() string { return "sales-alert" }

func (s *salesStrategy) Send(ctx context.Context, contact events.ContactCreated) error {
	company := "Individual"
	if contact.CompanyName != nil && *contact.CompanyName != "" {
		company = *contact.CompanyName
	}

	s.log.Info("notifying sales team about new contact",
		zap.String("name", contact.Name),
		zap.String("company", company))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return nil
}

// crmStrategy records the lead in the CRM with its computed score.
type crmStrategy struct {
	log *zap.Logger
}

func NewCRMStrategy(log *zap.Logger) Strategy {
	return &crmStrategy{log: log}
}

func (s *crmStrategy) Name() string { return "crm-lead-score" }

func (s *crmStrategy) Send(ctx context.Context, contact events.ContactCreated) error {
	s.log.Info("updating CRM with contact",
		zap.String("contact_id", contact.ContactID),
		zap.Int("lead_score", LeadScore(contact)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(75 * time.Millisecond):
	}
	return nil
}

// LeadScore rates a contact between 50 and 100: base 50, +30 for a company
// name, +20 when the message mentions "urgent", +10 for a detailed inquiry.
func LeadScore(contact events.ContactCreated) int {
	score := 50
	if contact.CompanyName != nil && *contact.CompanyName != "" {
		score += 30
	}
	if strings.Contains(strings.ToLower(contact.Message), "urgent") {
		score += 20
	}
	if len(contact.Message) > 100 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
