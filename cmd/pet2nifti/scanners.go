package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mrsinham/pet2nifti/internal/util"
	"github.com/spf13/cobra"
)

func newScannersCommand(o *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scanners",
		Short: "List the scanner types and their filter sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.newPipeline(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)

			vendor := ""
			for _, e := range p.Scanners.Entries() {
				if e.Vendor != vendor {
					if vendor != "" {
						fmt.Fprintln(out)
					}
					vendor = e.Vendor
					bold.Fprintln(out, strings.ToUpper(vendor))
				}
				fmt.Fprintf(out, "  %-28s %s mm\n", e.Model, util.FormatFilterSize(e.FWHM[:]))
			}
			return nil
		},
	}
}
