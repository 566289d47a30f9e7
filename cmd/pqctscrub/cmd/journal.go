/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the outcome journal",
		Long: `Every file processed by scrub or dump is recorded in the journal with
its outcome and, for scrubbed files, the size and SHA3-256 digest of the
written output.`,
	}
	journalCmd.PersistentFlags().String("since", "", "Only entries at or after this time (RFC 3339, or a duration such as 24h)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, since, err := a.journalQuery(cmd)
			if err != nil {
				return err
			}
			entries, err := j.List(since)
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMODE\tOUTCOME\tSOURCE\tDESTINATION\tSHA3-256")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Time.Local().Format(time.RFC3339), e.Mode, e.Outcome, e.Source, e.Destination, e.Digest)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the journal as a text log",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, since, err := a.journalQuery(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				if err := j.Export(f, since); err != nil {
					return err
				}
				return f.Close()
			}
			return j.Export(out, since)
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "File to write instead of stdout")

	journalCmd.AddCommand(listCmd, exportCmd)
	return journalCmd
}

func (a *app) journalQuery(cmd *cobra.Command) (*journal.Journal, time.Time, error) {
	j := a.container.Journal()
	if j == nil {
		return nil, time.Time{}, errors.New("the journal is disabled")
	}
	s, _ := cmd.Flags().GetString("since")
	since, err := parseSince(s, time.Now())
	if err != nil {
		return nil, time.Time{}, err
	}
	return j, since, nil
}

// parseSince accepts an RFC 3339 time or a duration before now
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid --since %q: want an RFC 3339 time or a duration", s)
	}
	return now.Add(-d), nil
}
