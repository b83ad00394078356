// Package billing owns the Stripe integration: checkout and portal
// session creation plus the webhook that mirrors subscription state
// into Postgres.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("billing is not configured")
	ErrNoCustomer    = errors.New("user has no billing customer")
	ErrBadPayload    = errors.New("malformed event payload")
)

const planProMonthly = "pro_monthly"

// Store is the billing view of the database.
type Store interface {
	GetSubscription(ctx context.Context, userID string) (*types.Subscription, error)
	SetStripeCustomer(ctx context.Context, userID, customerID string) error
	UserIDByStripeCustomer(ctx context.Context, customerID string) (string, error)
	UpsertSubscription(ctx context.Context, s *types.Subscription) error
}

// EntitlementCache lets webhook updates drop the cached access verdict.
type EntitlementCache interface {
	InvalidateEntitlement(ctx context.Context, userID string)
}

type Service struct {
	db            Store
	entitlements  EntitlementCache
	priceID       string
	frontendURL   string
	webhookSecret string
}

func NewService(db Store, entitlements EntitlementCache, priceID, frontendURL, webhookSecret string) *Service {
	return &Service{
		db:            db,
		entitlements:  entitlements,
		priceID:       priceID,
		frontendURL:   frontendURL,
		webhookSecret: webhookSecret,
	}
}

// InitStripe wires the API key once at startup.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

// ensureCustomer finds or creates the Stripe Customer for a user and
// records its id on the subscription row.
func (s *Service) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	sub, err := s.db.GetSubscription(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub != nil && sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	if err := s.db.SetStripeCustomer(ctx, userID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreateCheckoutSession returns a hosted checkout URL for the monthly
// plan.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID, email string) (string, error) {
	if s.priceID == "" || s.frontendURL == "" {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.frontendURL + "/billing/success"),
		CancelURL:  stripe.String(s.frontendURL + "/billing/cancel"),
	}
	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession returns a customer portal URL. Users who never
// went through checkout have no customer and get ErrNoCustomer.
func (s *Service) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	if s.frontendURL == "" {
		return "", ErrNotConfigured
	}

	sub, err := s.db.GetSubscription(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.frontendURL + "/account"),
	}
	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleEvent applies a verified webhook event. Events for customers
// this database has never seen are acknowledged and skipped; returning
// an error would only make Stripe retry them forever.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return s.applyCheckoutCompleted(ctx, &sess)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return s.applySubscriptionState(ctx, &sub, statusFromStripe(sub.Status))

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return s.applySubscriptionState(ctx, &sub, types.StatusCanceled)

	default:
		utils.Zlog.Debug("Ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if customerID == "" {
		return fmt.Errorf("%w: checkout session without customer", ErrBadPayload)
	}

	userID, err := s.db.UserIDByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if userID == "" {
		utils.Zlog.Warn("Checkout completed for unknown customer", zap.String("customerId", customerID))
		return nil
	}

	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	if err := s.db.UpsertSubscription(ctx, &types.Subscription{
		UserID:               userID,
		Status:               types.StatusActive,
		PlanID:               planProMonthly,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
	}); err != nil {
		return err
	}
	s.entitlements.InvalidateEntitlement(ctx, userID)

	utils.Zlog.Info("Checkout completed",
		zap.String("userId", userID),
		zap.String("customerId", customerID))
	return nil
}

func (s *Service) applySubscriptionState(ctx context.Context, sub *stripe.Subscription, status types.SubscriptionStatus) error {
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	if customerID == "" {
		return fmt.Errorf("%w: subscription without customer", ErrBadPayload)
	}

	userID, err := s.db.UserIDByStripeCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if userID == "" {
		utils.Zlog.Warn("Subscription event for unknown customer", zap.String("customerId", customerID))
		return nil
	}

	var periodEnd *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}
	if err := s.db.UpsertSubscription(ctx, &types.Subscription{
		UserID:               userID,
		Status:               status,
		PlanID:               planProMonthly,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd && status != types.StatusCanceled,
		CurrentPeriodEnd:     periodEnd,
	}); err != nil {
		return err
	}
	s.entitlements.InvalidateEntitlement(ctx, userID)

	utils.Zlog.Info("Subscription state applied",
		zap.String("userId", userID),
		zap.String("status", string(status)),
		zap.Bool("cancelAtPeriodEnd", sub.CancelAtPeriodEnd))
	return nil
}

// statusFromStripe folds Stripe's subscription statuses onto the ones
// the account page knows about.
func statusFromStripe(status stripe.SubscriptionStatus) types.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return types.StatusActive
	case stripe.SubscriptionStatusTrialing:
		return types.StatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return types.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return types.StatusCanceled
	case stripe.SubscriptionStatusIncomplete:
		return types.StatusIncomplete
	default:
		return types.StatusNone
	}
}
