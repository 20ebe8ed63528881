// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package main

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	entitypg "github.com/petnova/petnova/internal/entity/postgres"
	"github.com/petnova/petnova/internal/status"
	statuspg "github.com/petnova/petnova/internal/status/postgres"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

//go:embed seed/statuses.yaml
var defaultStatusesYAML []byte

type seedFile struct {
	Statuses []status.Input `yaml:"statuses"`
}

// statusCreator is the part of status.Service seeding uses.
type statusCreator interface {
	Create(ctx context.Context, in status.Input) (*status.Status, error)
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(opts *rootOptions, deps *Deps) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default status taxonomy",
		Long: `Inserts the default appointment, pet and invoice statuses.
This command is idempotent - statuses that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			logger := newLogger(cfg, deps)

			// cmd.Context() carries SIGINT/SIGTERM cancellation.
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := deps.Connect(ctx, cfg.Database.URL, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := status.NewService(statuspg.NewSource(entitypg.NewDB(db)), logger)
			if err != nil {
				return err
			}
			items, err := parseSeed(defaultStatusesYAML)
			if err != nil {
				return err
			}

			created, skipped, err := seedStatuses(ctx, statuses, items, logger)
			if err != nil {
				return err
			}
			cmd.Printf("Seeding complete: %d created, %d already present\n", created, skipped)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func parseSeed(raw []byte) ([]status.Input, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrap(err)
	}
	if len(f.Statuses) == 0 {
		return nil, oops.Code("SEED_INVALID").Errorf("seed file has no statuses")
	}
	return f.Statuses, nil
}

// seedStatuses creates each item, counting the ones that already exist.
func seedStatuses(ctx context.Context, statuses statusCreator, items []status.Input, logger *slog.Logger) (created, skipped int, err error) {
	for _, in := range items {
		st, createErr := statuses.Create(ctx, in)
		switch {
		case createErr == nil:
			created++
			logger.Debug("seeded status", "status_id", st.ID.String(), "type", st.Type, "name", st.Name)
		case isDuplicate(createErr):
			skipped++
			logger.Debug("status already present", "type", in.Type, "name", in.Name)
		default:
			return created, skipped, oops.Code("SEED_FAILED").
				With("type", in.Type).
				With("name", in.Name).
				Wrap(createErr)
		}
	}
	return created, skipped, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, status.ErrDuplicate) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
