// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/petnova/petnova/internal/config"
	"github.com/petnova/petnova/internal/logging"
	"github.com/petnova/petnova/internal/xdg"
)

// serviceName labels logs and metrics.
const serviceName = "petnova"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
}

// NewRootCmd creates the root command. A nil deps uses the defaults.
func NewRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "petnova",
		Short: "PetNova - veterinary clinic backend",
		Long: `PetNova serves the clinic's account, authentication and status
catalogue API on top of PostgreSQL.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (YAML, default $XDG_CONFIG_HOME/petnova/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")
	cmd.PersistentFlags().String("log-format", "json", "log format (json or text)")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(NewServeCmd(opts, deps))
	cmd.AddCommand(NewMigrateCmd(opts, deps))
	cmd.AddCommand(NewSeedCmd(opts, deps))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads every configuration source for cmd. Without --config
// the XDG config file is used when it exists.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	file := opts.configFile
	if file == "" {
		file = xdg.DefaultConfigFile()
	}
	return config.Load(config.Options{
		File:    file,
		EnvFile: opts.envFile,
		Flags:   cmd.Flags(),
	})
}

// newLogger builds the command logger and installs it as the default.
func newLogger(cfg *config.Config, deps *Deps) *slog.Logger {
	logger := logging.Setup(serviceName, version, cfg.Log.Format, deps.LogWriter)
	slog.SetDefault(logger)
	return logger
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("petnova %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
