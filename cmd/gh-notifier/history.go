package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gh-notifier/gh-notifier/internal/db"
	"github.com/gh-notifier/gh-notifier/internal/repositories"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		q      repositories.HistoryQuery
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored notifications",
		Long: `History lists notifications from the local store, newest first.
Filters narrow the result; --json emits the raw records for scripting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if q.Unread && q.Read {
				return fmt.Errorf("--unread and --read are mutually exclusive")
			}

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.repo.ListHistory(cmd.Context(), q)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if items == nil {
					items = []db.Notification{}
				}
				return enc.Encode(items)
			}

			printHistory(items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&q.Unread, "unread", false, "Only unread notifications")
	cmd.Flags().BoolVar(&q.Read, "read", false, "Only read notifications")
	cmd.Flags().StringVar(&q.Repository, "repo", "", "Filter by repository full name (owner/name)")
	cmd.Flags().StringVar(&q.Reason, "reason", "", "Filter by notification reason")
	cmd.Flags().StringVar(&q.SubjectType, "type", "", "Filter by subject type (Issue, PullRequest, ...)")
	cmd.Flags().StringVar(&q.Since, "since", "", "Only items received at or after this RFC3339 timestamp")
	cmd.Flags().StringVar(&q.Until, "until", "", "Only items received at or before this RFC3339 timestamp")
	cmd.Flags().IntVar(&q.Limit, "limit", 50, "Maximum number of items (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func printHistory(items []db.Notification) {
	if len(items) == 0 {
		fmt.Println("no notifications")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECEIVED\tSTATE\tREPOSITORY\tREASON\tTITLE")
	for _, n := range items {
		stateCol := "unread"
		if n.IsRead {
			stateCol = "read"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.ID, n.ReceivedAt, stateCol, n.Repository, n.Reason, n.Title)
	}
	w.Flush()
}
