/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/batch"
	"github.com/ssargent/pqctscrub/pkg/report"
)

// errFilesFailed makes the process exit non-zero after a partial batch
var errFilesFailed = errors.New("some files could not be processed")

func newScrubCmd(a *app) *cobra.Command {
	scrubCmd := &cobra.Command{
		Use:   "scrub [flags] source... [destination]",
		Short: "Remove the date of birth and patient name from scan files",
		Long: `Scrub rounds the date of birth to the nearest first of the month and
blanks the patient name of each Stratec scan file.

The last argument decides where results go:
  srcdir destdir       every file of srcdir is written into destdir
  file... destdir      each file is written into destdir
  file newfile         file is written to newfile, which must not exist
  dir                  every file of dir is scrubbed in place (needs --force)
  file...              each file is scrubbed in place (needs --force)

Examples:
  pqctscrub scrub ./raw ./clean
  pqctscrub scrub I0001234.M01 I0001235.M01 --output-dir ./clean
  pqctscrub scrub --force ./raw`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			outputDir := a.cfg.OutputDir
			if cmd.Flags().Changed("output-dir") {
				outputDir, _ = cmd.Flags().GetString("output-dir")
			}
			return a.runScrub(cmd, args, outputDir, force)
		},
	}

	scrubCmd.Flags().StringP("output-dir", "o", "", "Directory to write scrubbed copies into")
	scrubCmd.Flags().BoolP("force", "f", false, "Allow overwriting the source files")
	return scrubCmd
}

func (a *app) runScrub(cmd *cobra.Command, args []string, outputDir string, force bool) error {
	logger := a.container.Logger()

	plan, err := batch.ResolvePairs(args)
	if err != nil {
		return err
	}
	// The output dir only applies when the arguments name no destination.
	if plan.InPlace && outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		plan, err = batch.ResolvePairs(append(append([]string(nil), args...), outputDir))
		if err != nil {
			return err
		}
	}
	for _, s := range plan.Skipped {
		logger.Warn("skipping source that is not a regular file", "path", s)
	}
	if plan.InPlace && !force {
		return fmt.Errorf("refusing to overwrite %d source file(s) without --force", len(plan.Pairs))
	}

	b := a.container.Processor(batch.ModeScrub).Process(plan.Pairs)
	return a.drain(cmd, b, func(r batch.Result) error {
		if a.cfg.Quiet {
			return nil
		}
		return report.WriteOutcome(cmd.OutOrStdout(), r)
	})
}

// drain runs b to completion, handing each result to emit and printing
// progress to stderr.
func (a *app) drain(cmd *cobra.Command, b *batch.Batch, emit func(batch.Result) error) error {
	total := b.Total()
	progress := !a.cfg.Quiet && total > 1
	for b.Next() {
		if err := emit(b.Result()); err != nil {
			return err
		}
		if progress {
			printProgress(cmd.ErrOrStderr(), b.Result().Index+1, total)
		}
	}

	if err := a.container.WriteMetrics(); err != nil {
		a.container.Logger().Error("metrics not written", "err", err)
	}

	summary := b.Summary()
	if !a.cfg.Quiet {
		if err := report.WriteSummary(cmd.ErrOrStderr(), summary); err != nil {
			return err
		}
	}
	if summary.Failed > 0 {
		return errFilesFailed
	}
	return nil
}

func printProgress(w io.Writer, done, total int) {
	fmt.Fprintf(w, "processed %d/%d\n", done, total)
}
