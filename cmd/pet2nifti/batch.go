package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mrsinham/pet2nifti/cmd/pet2nifti/wizard"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBatchCommand(o *cliOptions) *cobra.Command {
	var workers int
	var plain bool

	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Run the conversions listed in a YAML manifest",
		Long: `Run several independent conversions in parallel. The manifest holds a
list of jobs using the same keys as --config files; keys missing from a job
are taken from "defaults", and "destination_folder" applies to every job
that does not set its own.

  destination_folder: ./bids
  workers: 4
  defaults:
    apply_filter: true
    scanner_type: HRRT
  jobs:
    - source_data: ./raw/sub01
    - source_data: ./raw/sub02.v
      subject_id: "02"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := pipeline.LoadManifest(args[0])
			if err != nil {
				return err
			}
			jobs := manifest.ResolvedJobs()
			loc, err := o.location()
			if err != nil {
				return err
			}
			for i := range jobs {
				jobs[i].Location = loc
			}

			p, err := o.newPipeline(cmd)
			if err != nil {
				return err
			}
			// Stage lines of concurrent jobs would interleave
			p.Quiet = true

			n := workers
			if !cmd.Flags().Changed("workers") && manifest.Workers > 0 {
				n = manifest.Workers
			}

			out := cmd.OutOrStdout()
			var results []pipeline.BatchResult
			if !o.quiet && !plain && isTerminal(out) {
				results, err = wizard.RunBatchProgress(len(jobs), func(progress func(int, int, pipeline.BatchResult)) []pipeline.BatchResult {
					return p.RunBatch(jobs, n, progress)
				})
				if err != nil {
					return err
				}
			} else {
				results = p.RunBatch(jobs, n, func(completed, total int, r pipeline.BatchResult) {
					if !o.quiet {
						printJobLine(out, completed, total, r)
					}
				})
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if !o.quiet || failed > 0 {
				fmt.Fprintln(out)
				fmt.Fprint(out, wizard.RenderBatchSummary(results))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of parallel conversions (default: manifest value, else CPU cores)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one line per finished job instead of a live progress view")
	return cmd
}

func printJobLine(w io.Writer, completed, total int, r pipeline.BatchResult) {
	if r.Err != nil {
		fmt.Fprintf(w, "%s [%d/%d] %s: %v\n", color.New(color.FgRed).Sprint("✗"), completed, total, r.Options.SourceData, r.Err)
		return
	}
	fmt.Fprintf(w, "%s [%d/%d] %s\n", color.New(color.FgGreen).Sprint("✓"), completed, total, r.Result.NiftiPath)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
