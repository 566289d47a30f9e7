/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/report"
	"github.com/ssargent/pqctscrub/pkg/stratec"
)

func newDumpCmd(a *app) *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump [flags] path...",
		Short: "Print the header fields of scan files",
		Long: `Dump prints one record per Stratec scan file: path, patient number,
date of birth, measurement date and measurement number, tab-separated.
Directories are expanded to the files they contain. Files that are not
Stratec scans are skipped.

With --format json each record is a JSON object that also carries the
patient name and ID.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _ := cmd.Flags().GetString("format")
			format, err := report.ParseFormat(f)
			if err != nil {
				return err
			}

			pairs, err := batch.ExpandSources(args)
			if err != nil {
				return err
			}

			b := a.container.Processor(batch.ModeDump).Process(pairs)
			return a.drain(cmd, b, func(r batch.Result) error {
				switch r.Outcome {
				case stratec.Dumped:
					return report.WriteDump(cmd.OutOrStdout(), format, r)
				case stratec.Failed:
					return report.WriteOutcome(cmd.ErrOrStderr(), r)
				}
				return nil
			})
		},
	}

	dumpCmd.Flags().String("format", "tsv", "Output format (tsv or json)")
	return dumpCmd
}
