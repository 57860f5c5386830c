// gh-notifier mirrors a single user's GitHub notification inbox to the
// desktop. The start command runs the daemon: poll, filter, store, dispatch,
// with a loopback control API. The remaining commands inspect and manage the
// local notification store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "gh-notifier",
		Short: "GitHub notifications on your desktop",
		Long: `gh-notifier polls the GitHub notifications API on behalf of a single
user, filters the inbox against a declarative rule set, stores every new
item locally, and raises a desktop notification for each one. A loopback
HTTP API exposes the stored history to local tooling.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.toml (default: <user config dir>/gh-notifier/config.toml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(newStartCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newMarkReadCmd(flags))
	root.AddCommand(newDeleteCmd(flags))
	root.AddCommand(newInfoCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gh-notifier %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
