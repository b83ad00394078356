package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrAlreadySubscribed = errors.New("user already has a subscription")
)

const (
	trialPlanID    = "pro_monthly"
	trialDuration  = 30 * 24 * time.Hour
	entitlementTTL = 60 * time.Second
)

// Store is the account view of the database.
type Store interface {
	GetSubscription(ctx context.Context, userID string) (*types.Subscription, error)
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	InsertTrialSubscription(ctx context.Context, userID, planID string, periodEnd time.Time) error
}

// Cache mirrors the Redis operations the entitlement path uses. A nil
// Cache disables caching; every check then hits Postgres.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	db         Store
	cache      Cache
	inviteCode string
}

func NewService(db Store, cache Cache, inviteCode string) *Service {
	return &Service{db: db, cache: cache, inviteCode: inviteCode}
}

// Me assembles the account page payload. A user without a subscription
// row gets subscription null and the unsubscribed label, not an error.
func (s *Service) Me(ctx context.Context, userID, email string) (*types.MeResponse, error) {
	sub, err := s.db.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &types.MeResponse{
		User:              types.MeUser{ID: userID, Email: email},
		Profile:           profile,
		Subscription:      sub,
		SubscriptionLabel: SubscriptionLabel(sub),
	}, nil
}

func entitlementKey(userID string) string {
	return "entitlement:" + userID
}

// Entitled reports whether the user may use paid features. Results are
// cached briefly; webhook updates invalidate the key so a cancellation
// is never masked for longer than the TTL.
func (s *Service) Entitled(ctx context.Context, userID string) (bool, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, entitlementKey(userID)); err == nil {
			return cached == "1", nil
		}
	}

	sub, err := s.db.GetSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	entitled := sub != nil && sub.Status.Entitled()

	if s.cache != nil {
		value := "0"
		if entitled {
			value = "1"
		}
		if err := s.cache.Set(ctx, entitlementKey(userID), value, entitlementTTL); err != nil {
			utils.Zlog.Warn("Failed to cache entitlement", zap.String("userId", userID), zap.Error(err))
		}
	}
	return entitled, nil
}

// InvalidateEntitlement drops the cached verdict after a billing state
// change. Best effort; a stale entry ages out within the TTL anyway.
func (s *Service) InvalidateEntitlement(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, entitlementKey(userID)); err != nil {
		utils.Zlog.Warn("Failed to invalidate entitlement cache", zap.String("userId", userID), zap.Error(err))
	}
}

// StartTrial grants a 30-day trial of the monthly plan against a shared
// invite code. Users who ever held a subscription row are refused.
func (s *Service) StartTrial(ctx context.Context, userID, code string) error {
	if s.inviteCode == "" || code != s.inviteCode {
		return ErrInvalidInviteCode
	}

	existing, err := s.db.GetSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadySubscribed
	}

	periodEnd := time.Now().UTC().Add(trialDuration)
	if err := s.db.InsertTrialSubscription(ctx, userID, trialPlanID, periodEnd); err != nil {
		return fmt.Errorf("failed to start trial: %w", err)
	}
	s.InvalidateEntitlement(ctx, userID)

	utils.Zlog.Info("Trial started",
		zap.String("userId", userID),
		zap.Time("periodEnd", periodEnd))
	return nil
}
