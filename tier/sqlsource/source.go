// Package sqlsource reads subscription state from the billing database.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mbeoliero/learncache/tier"
)

const defaultQuery = `SELECT status, plan FROM subscriptions WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`

// Source implements tier.Source over database/sql.
type Source struct {
	db    *sql.DB
	query string
}

var _ tier.Source = (*Source)(nil)

// New wraps an open database. The subscriptions table must expose user_id, status, plan
// and updated_at columns.
func New(db *sql.DB) *Source {
	return &Source{db: db, query: defaultQuery}
}

// Open connects to a PostgreSQL database through pgx.
func Open(dsn string) (*Source, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscription dsn: %w", err)
	}
	return New(stdlib.OpenDB(*cfg)), nil
}

func (s *Source) DB() *sql.DB {
	return s.db
}

// Lookup returns the most recently updated subscription of userID, or nil when the user
// never subscribed.
func (s *Source) Lookup(ctx context.Context, userID string) (*tier.Subscription, error) {
	var status, plan sql.NullString
	err := s.db.QueryRowContext(ctx, s.query, userID).Scan(&status, &plan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription of %s: %w", userID, err)
	}
	return &tier.Subscription{Status: status.String, Plan: plan.String}, nil
}

func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Source) Close() error {
	return s.db.Close()
}
