package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gh-notifier/gh-notifier/internal/repositories"
)

func newMarkReadCmd(flags *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "mark-read [id...]",
		Short: "Mark stored notifications as read",
		Long: `Mark-read updates the local read state only; the remote inbox is not
touched. Pass notification ids, or --all for every unread item.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass at least one notification id or --all")
			}

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				if err := a.repo.MarkAllAsRead(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("all notifications marked as read")
				return nil
			}

			for _, id := range args {
				if err := a.repo.MarkAsRead(cmd.Context(), id); err != nil {
					if errors.Is(err, repositories.ErrNotFound) {
						return fmt.Errorf("notification %s not found", id)
					}
					return err
				}
			}
			fmt.Printf("%d notification(s) marked as read\n", len(args))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every unread notification as read")
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	var (
		all  bool
		repo string
	)

	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete stored notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && repo == "" && len(args) == 0 {
				return fmt.Errorf("pass notification ids, --repo, or --all")
			}

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			switch {
			case all:
				count, err := a.repo.DeleteAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%d notification(s) deleted\n", count)

			case repo != "":
				count, err := a.repo.DeleteByRepository(cmd.Context(), repo)
				if err != nil {
					return err
				}
				fmt.Printf("%d notification(s) deleted from %s\n", count, repo)

			default:
				for _, id := range args {
					if err := a.repo.Delete(cmd.Context(), id); err != nil {
						if errors.Is(err, repositories.ErrNotFound) {
							return fmt.Errorf("notification %s not found", id)
						}
						return err
					}
				}
				fmt.Printf("%d notification(s) deleted\n", len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every stored notification")
	cmd.Flags().StringVar(&repo, "repo", "", "Delete everything from one repository (owner/name)")
	return cmd
}

func newInfoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show store statistics and effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			total, err := a.repo.Count(cmd.Context())
			if err != nil {
				return err
			}
			unread, err := a.repo.ListUnread(cmd.Context())
			if err != nil {
				return err
			}
			dbPath, err := a.cfg.DatabasePath()
			if err != nil {
				return err
			}

			fmt.Printf("gh-notifier %s\n\n", version)
			fmt.Printf("database:            %s\n", dbPath)
			fmt.Printf("notifications:       %d (%d unread)\n", total, len(unread))
			fmt.Printf("poll interval:       %s\n", a.cfg.PollInterval())
			fmt.Printf("sink:                %s\n", a.cfg.Sink)
			fmt.Printf("mark read on notify: %v\n", a.cfg.MarkAsReadOnNotify)
			fmt.Printf("recovery window:     %s\n", a.cfg.RecoveryWindow())
			if a.cfg.APIEnabled {
				fmt.Printf("control API:         http://%s:%d\n", a.cfg.APIBind, a.cfg.APIPort)
			} else {
				fmt.Printf("control API:         disabled\n")
			}
			return nil
		},
	}
}
