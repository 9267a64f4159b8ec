package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zaqqye/tg_contact_form/internal/database"
)

func newMigrateCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func newSeedAdminCmd(_ *rootOptions) *cobra.Command {
	var email, password, fullName string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first admin account if none exists",
		Long: `Create the first admin account if none exists.

Flags override ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_FULL_NAME.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if email != "" {
				e.cfg.AdminEmail = email
			}
			if password != "" {
				e.cfg.AdminPassword = password
			}
			if fullName != "" {
				e.cfg.AdminFullName = fullName
			}
			if err := database.Migrate(e.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if err := database.SeedAdmin(e.db, e.cfg, e.log); err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Admin account ready.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&fullName, "name", "", "Admin full name")
	return cmd
}
