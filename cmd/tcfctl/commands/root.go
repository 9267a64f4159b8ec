// Package commands implements the tcfctl operator CLI.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/cli/output"
	"github.com/zaqqye/tg_contact_form/internal/config"
	"github.com/zaqqye/tg_contact_form/internal/database"
	"github.com/zaqqye/tg_contact_form/internal/logger"
)

type rootOptions struct {
	envFile string
	output  string
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tcfctl",
		Short: "Contact form operator CLI",
		Long: `tcfctl manages a contact form deployment directly against its database.

It reads the same environment variables as the server (DB_DRIVER,
SQLITE_PATH, DB_HOST, ...), optionally from an env file.

Examples:
  # Apply schema migrations
  tcfctl migrate

  # List the latest requests
  tcfctl requests list --limit 10

  # Change a setting
  tcfctl settings set submit_button_text="Talk to us"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			_, err := output.ParseFormat(opts.output)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table|json)")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedAdminCmd(opts))
	cmd.AddCommand(newRequestsCmd(opts))
	cmd.AddCommand(newSettingsCmd(opts))
	cmd.AddCommand(newAnalyticsCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) format() output.Format {
	f, _ := output.ParseFormat(o.output)
	return f
}

// env is the configuration and database shared by every subcommand.
type env struct {
	cfg *config.Config
	db  *gorm.DB
	log logger.Logger
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, log: logger.NewStructured("warn", "console")}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
