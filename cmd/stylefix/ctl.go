package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/server"
)

func newCtlCmd() *cobra.Command {
	var addr string
	client := func() (*server.Client, error) {
		return server.NewClient(addr, nil)
	}

	ctl := &cobra.Command{
		Use:   "ctl",
		Short: "Control a running engine through its bridge",
	}
	ctl.PersistentFlags().StringVar(&addr, "addr", server.DefaultAddr, "bridge address")

	ctl.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start polling",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				started, err := c.Start(cmd.Context())
				if err != nil {
					return err
				}
				if started {
					fmt.Fprintln(cmd.OutOrStdout(), "polling started")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "polling already running")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop polling",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				if err := c.Stop(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "polling stopped")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show engine status and applied fixes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				st, err := c.Status(cmd.Context())
				if err != nil {
					return err
				}
				applied, err := c.Applied(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st, applied)
				return nil
			},
		},
		&cobra.Command{
			Use:   "apply <file.json|->",
			Short: "Apply a fix read from a JSON file or stdin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fix, err := readFix(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				c, err := client()
				if err != nil {
					return err
				}
				res, err := c.Apply(cmd.Context(), fix)
				if err != nil {
					return err
				}
				if !res.Applied {
					return fmt.Errorf("fix %s was not applied", res.ID)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "applied", res.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rollback <id>",
			Short: "Roll back one applied fix",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				if err := c.Rollback(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Roll back every applied fix",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				if err := c.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all fixes cleared")
				return nil
			},
		},
	)
	return ctl
}

func readFix(stdin io.Reader, path string) (fixes.Fix, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fixes.Fix{}, fmt.Errorf("read fix: %w", err)
	}
	var fix fixes.Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		return fixes.Fix{}, fmt.Errorf("decode fix: %w", err)
	}
	return fix, nil
}

func printStatus(w io.Writer, st server.Status, applied []fixes.Fix) {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	if st.Offline {
		state += " (backend offline)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "state\t%s\n", state)
	fmt.Fprintf(tw, "application\t%s\n", st.ApplicationID)
	fmt.Fprintf(tw, "auto apply\t%t\n", st.AutoApply)
	fmt.Fprintf(tw, "interval\t%dms\n", st.PollIntervalMS)
	fmt.Fprintf(tw, "cycles\t%d\n", st.Cycles)
	if st.LastPoll != nil {
		fmt.Fprintf(tw, "last poll\t%s (%d fetched, %d pending)\n",
			st.LastPoll.Local().Format("15:04:05"), st.LastFetched, st.LastPending)
	}
	if st.LastError != "" {
		fmt.Fprintf(tw, "last error\t%s\n", st.LastError)
	}
	fmt.Fprintf(tw, "applied\t%d\n", st.Applied)
	_ = tw.Flush()

	if len(applied) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSELECTOR\tCHANGES\tPRIORITY")
	for _, f := range applied {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", f.ID, f.Selector(), len(f.Changes), f.Priority)
	}
	_ = tw.Flush()
}
