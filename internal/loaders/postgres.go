// Package loaders owns the clients for the managed backends: Postgres,
// Redis, object storage config.
package loaders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgresClient wraps the connection pool and the typed queries the API
// needs. Row-level security lives in the database; every query still
// scopes by user_id so a misconfigured policy fails closed.
type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, databaseURL string) (*PostgresClient, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresClient{Pool: pool}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *PostgresClient) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// ====== PROJECTS ======

const projectColumns = `id, user_id, name, app_name, storage_path, thumbnail_path, created_at, updated_at`

func (c *PostgresClient) ListProjects(ctx context.Context, userID, appName string) ([]types.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1`
	args := []interface{}{userID}
	if appName != "" {
		query += ` AND app_name = $2`
		args = append(args, appName)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := c.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []types.Project{}
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.AppName, &p.StoragePath, &p.ThumbnailPath, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject resolves a project by id and owner; (nil, nil) when no row
// matches, so non-owned ids read the same as missing ones.
func (c *PostgresClient) GetProject(ctx context.Context, id, userID string) (*types.Project, error) {
	var p types.Project
	err := c.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.AppName, &p.StoragePath, &p.ThumbnailPath, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

func (c *PostgresClient) InsertProject(ctx context.Context, p *types.Project) error {
	_, err := c.Pool.Exec(ctx,
		`INSERT INTO projects (id, user_id, name, app_name, storage_path, thumbnail_path)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.Name, p.AppName, p.StoragePath, p.ThumbnailPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// DeleteProject removes the metadata row; the bool reports whether a row
// existed for this id+owner.
func (c *PostgresClient) DeleteProject(ctx context.Context, id, userID string) (bool, error) {
	tag, err := c.Pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ====== SUBSCRIPTIONS ======

const subscriptionColumns = `user_id, status, plan_id, COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), cancel_at_period_end, current_period_end, updated_at`

func (c *PostgresClient) GetSubscription(ctx context.Context, userID string) (*types.Subscription, error) {
	var s types.Subscription
	err := c.Pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.Status, &s.PlanID, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.CancelAtPeriodEnd, &s.CurrentPeriodEnd, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

func (c *PostgresClient) InsertTrialSubscription(ctx context.Context, userID, planID string, periodEnd time.Time) error {
	_, err := c.Pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, status, plan_id, current_period_end)
		 VALUES ($1, 'trialing', $2, $3)`,
		userID, planID, periodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trial subscription: %w", err)
	}
	return nil
}

// UpsertSubscription applies billing webhook state onto the row.
func (c *PostgresClient) UpsertSubscription(ctx context.Context, s *types.Subscription) error {
	_, err := c.Pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, status, plan_id, stripe_customer_id, stripe_subscription_id, cancel_at_period_end, current_period_end, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   plan_id = COALESCE(NULLIF(EXCLUDED.plan_id, ''), subscriptions.plan_id),
		   stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, subscriptions.stripe_customer_id),
		   stripe_subscription_id = COALESCE(EXCLUDED.stripe_subscription_id, subscriptions.stripe_subscription_id),
		   cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		   current_period_end = EXCLUDED.current_period_end,
		   updated_at = now()`,
		s.UserID, s.Status, s.PlanID, s.StripeCustomerID, s.StripeSubscriptionID, s.CancelAtPeriodEnd, s.CurrentPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (c *PostgresClient) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	_, err := c.Pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, status, stripe_customer_id)
		 VALUES ($1, 'none', $2)
		 ON CONFLICT (user_id) DO UPDATE SET stripe_customer_id = EXCLUDED.stripe_customer_id`,
		userID, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer: %w", err)
	}
	return nil
}

func (c *PostgresClient) UserIDByStripeCustomer(ctx context.Context, customerID string) (string, error) {
	var userID string
	err := c.Pool.QueryRow(ctx,
		`SELECT user_id FROM subscriptions WHERE stripe_customer_id = $1`,
		customerID,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve stripe customer: %w", err)
	}
	return userID, nil
}

// ====== USERS / PROFILES ======

func (c *PostgresClient) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	var p types.Profile
	err := c.Pool.QueryRow(ctx,
		`SELECT user_id, display_name FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
