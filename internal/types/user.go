package types

import "time"

// ====== ENUMS ======

type SubscriptionStatus string

const (
	StatusNone       SubscriptionStatus = "none"
	StatusActive     SubscriptionStatus = "active"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusCanceled   SubscriptionStatus = "canceled"
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusTrialing   SubscriptionStatus = "trialing"
)

// Entitled reports whether the status grants paid-feature access.
func (s SubscriptionStatus) Entitled() bool {
	return s == StatusActive || s == StatusTrialing
}

// ====== DATABASE MODELS ======

type Subscription struct {
	UserID               string             `db:"user_id" json:"-"`
	Status               SubscriptionStatus `db:"status" json:"status"`
	PlanID               string             `db:"plan_id" json:"plan_id,omitempty"`
	StripeCustomerID     string             `db:"stripe_customer_id" json:"-"`
	StripeSubscriptionID string             `db:"stripe_subscription_id" json:"-"`
	CancelAtPeriodEnd    bool               `db:"cancel_at_period_end" json:"cancel_at_period_end,omitempty"`
	CurrentPeriodEnd     *time.Time         `db:"current_period_end" json:"current_period_end,omitempty"`
	UpdatedAt            time.Time          `db:"updated_at" json:"-"`
}

type Profile struct {
	UserID      string  `db:"user_id" json:"-"`
	DisplayName *string `db:"display_name" json:"display_name"`
}

// ====== RESPONSE TYPES ======

// MeResponse is the merged identity + profile + subscription view the
// account page reads in a single request.
type MeResponse struct {
	User              MeUser        `json:"user"`
	Profile           *Profile      `json:"profile"`
	Subscription      *Subscription `json:"subscription"`
	SubscriptionLabel string        `json:"subscription_label"`
}

type MeUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
