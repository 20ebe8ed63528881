// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package testutil starts throwaway PostgreSQL servers for integration tests.
package testutil

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the server image used by integration tests.
const PostgresImage = "postgres:16-alpine"

// Postgres is a running container plus a pool connected to it.
type Postgres struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	URL       string
}

// StartPostgres runs a fresh PostgreSQL container and connects to it.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase("petnova_test"),
		postgres.WithUsername("petnova"),
		postgres.WithPassword("petnova"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, oops.Code("TEST_CONTAINER_FAILED").Wrap(err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, oops.Code("TEST_CONTAINER_FAILED").Wrap(err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, oops.Code("TEST_CONTAINER_FAILED").Wrap(err)
	}

	return &Postgres{Container: container, Pool: pool, URL: url}, nil
}

// Truncate empties the given tables.
func (p *Postgres) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		sql := "TRUNCATE " + pgx.Identifier{table}.Sanitize() + " CASCADE"
		if _, err := p.Pool.Exec(ctx, sql); err != nil {
			return oops.Code("TEST_TRUNCATE_FAILED").With("table", table).Wrap(err)
		}
	}
	return nil
}

// Stop closes the pool and terminates the container.
func (p *Postgres) Stop(ctx context.Context) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}
