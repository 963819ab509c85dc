package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/stylefix/internal/app"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stylefix",
		Short:         "Inject generated CSS fixes into a running page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCtlCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		opts app.Options
		poll time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the backend and apply pending fixes",
		Long: `Run starts the injection engine: the poll loop, the bridge HTTP API
and, with --console, the terminal console.

Without --page fixes are kept in an in-memory style sheet served at
/fixes.css, which pages pick up through the /fix-injector.js loader.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.PollInterval = poll
			opts.Stderr = cmd.ErrOrStderr()
			return app.Run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/stylefix/config.toml)")
	f.StringVar(&opts.PrefsPath, "prefs", "", "console preferences file (default ~/.config/stylefix/prefs.toml)")
	f.StringVar(&opts.Listen, "listen", "", "bridge listen address")
	f.StringVar(&opts.PageURL, "page", "", "page to open in Chrome and inject into")
	f.DurationVar(&poll, "poll", 0, "poll interval override, e.g. 10s")
	f.BoolVar(&opts.Console, "console", false, "run the terminal console; logs go to the log file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stylefix", version)
		},
	}
}
