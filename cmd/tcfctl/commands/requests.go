package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zaqqye/tg_contact_form/internal/cli/output"
	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/submissions"
)

func newRequestsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and delete stored requests",
		Long: `Inspect and delete stored contact requests.

Examples:
  # Newest 20 requests
  tcfctl requests list

  # Search by name, email or message
  tcfctl requests list -q invoice

  # Delete a request
  tcfctl requests delete 42 --yes`,
	}
	cmd.AddCommand(newRequestsListCmd(opts))
	cmd.AddCommand(newRequestsDeleteCmd(opts))
	return cmd
}

// RequestList renders submissions as a table.
type RequestList []models.Submission

func (rl RequestList) Headers() []string {
	return []string{"ID", "SUBMITTED", "NAME", "EMAIL", "PHONE", "TELEGRAM", "IP", "MESSAGE"}
}

func (rl RequestList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, s := range rl {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.SubmittedAt.UTC().Format("2006-01-02 15:04"),
			emptyOr(s.Name),
			emptyOr(s.Email),
			emptyOr(s.Phone),
			emptyOr(s.TelegramHandle),
			emptyOr(s.IPAddress),
			emptyOr(output.Truncate(s.Message, 40)),
		})
	}
	return rows
}

func emptyOr(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newRequestsListCmd(opts *rootOptions) *cobra.Command {
	var list submissions.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			items, total, err := submissions.NewRepository(e.db).List(context.Background(), list)
			if err != nil {
				return fmt.Errorf("failed to list requests: %w", err)
			}
			if opts.format() == output.FormatJSON {
				return output.PrintJSON(cmd.OutOrStdout(), map[string]interface{}{"data": items, "total": total})
			}
			return output.Print(cmd.OutOrStdout(), output.FormatTable, nil, len(items) == 0, "No requests found.", RequestList(items))
		},
	}
	cmd.Flags().IntVar(&list.Limit, "limit", 20, "Rows per page")
	cmd.Flags().IntVar(&list.Page, "page", 1, "Page number")
	cmd.Flags().BoolVar(&list.All, "all", false, "Ignore paging and list every request")
	cmd.Flags().StringVar(&list.SortDir, "sort", "desc", "Sort direction by submission time (asc|desc)")
	cmd.Flags().StringVarP(&list.Query, "query", "q", "", "Case-insensitive search in name, email and message")
	return cmd
}

func newRequestsDeleteCmd(_ *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}
			if !yes {
				return fmt.Errorf("refusing to delete request %d without --yes", id)
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			err = submissions.NewRepository(e.db).Delete(context.Background(), uint(id))
			if errors.Is(err, submissions.ErrNotFound) {
				return fmt.Errorf("request %d not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to delete request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d deleted.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}
