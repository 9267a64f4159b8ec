package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zaqqye/tg_contact_form/internal/cli/output"
	"github.com/zaqqye/tg_contact_form/internal/settings"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change form settings",
		Long: `Read and change form settings.

Sensitive values (bot token, anti-spam key) are masked unless --reveal is set.

Examples:
  # Show every setting
  tcfctl settings get

  # Show one setting
  tcfctl settings get chat_id

  # Turn off the captcha and hide the phone field
  tcfctl settings set captcha_enabled=false field_phone_visible=false`,
	}
	cmd.AddCommand(newSettingsGetCmd(opts))
	cmd.AddCommand(newSettingsSetCmd(opts))
	return cmd
}

func settingsTable(values map[string]string, only []string) *output.TableData {
	keys := only
	if len(keys) == 0 {
		keys = make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	t := output.NewTableData("KEY", "VALUE")
	for _, k := range keys {
		t.AddRow(k, emptyOr(strings.ReplaceAll(values[k], "\n", " ")))
	}
	return t
}

func newSettingsGetCmd(opts *rootOptions) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get [key...]",
		Short: "Show settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			s, err := settings.NewStore(e.db).Load(context.Background())
			if err != nil {
				return err
			}
			values := s.Masked()
			if reveal {
				values = s.ToMap()
			}
			for _, k := range args {
				if _, ok := values[k]; !ok {
					return fmt.Errorf("unknown setting %q", k)
				}
			}
			if opts.format() == output.FormatJSON {
				if len(args) > 0 {
					picked := make(map[string]string, len(args))
					for _, k := range args {
						picked[k] = values[k]
					}
					values = picked
				}
				return output.PrintJSON(cmd.OutOrStdout(), values)
			}
			return output.PrintTable(cmd.OutOrStdout(), settingsTable(values, args))
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show sensitive values")
	return cmd
}

func newSettingsSetCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Change settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(args))
			for _, arg := range args {
				k, v, ok := strings.Cut(arg, "=")
				if !ok || k == "" {
					return fmt.Errorf("expected key=value, got %q", arg)
				}
				values[k] = v
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := settings.NewStore(e.db).Update(context.Background(), values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d setting(s).\n", len(values))
			return nil
		},
	}
}
