// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package store owns the PostgreSQL connection and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultConnectAttempts is how many times Connect pings before giving up.
const DefaultConnectAttempts = 5

type connectOptions struct {
	attempts uint64
	base     time.Duration
}

// ConnectOption tunes Connect.
type ConnectOption func(*connectOptions)

// WithConnectBackoff overrides the number of attempts and the initial
// exponential backoff between them.
func WithConnectBackoff(attempts uint64, base time.Duration) ConnectOption {
	return func(o *connectOptions) {
		o.attempts = attempts
		o.base = base
	}
}

// Connect opens a pool for databaseURL and pings it, retrying with
// exponential backoff while the server is unreachable.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger, opts ...ConnectOption) (*pgxpool.Pool, error) {
	o := connectOptions{attempts: DefaultConnectAttempts, base: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	if o.attempts == 0 {
		o.attempts = 1
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("stage", "parse").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("stage", "pool").Wrap(err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(o.attempts-1, retry.NewExponential(o.base))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable",
				"attempt", attempt,
				"max_attempts", o.attempts,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("stage", "ping").
			With("attempts", attempt).
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}

	logger.InfoContext(ctx, "connected to database",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"attempts", attempt)
	return pool, nil
}
