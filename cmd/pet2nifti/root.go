package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mrsinham/pet2nifti/cmd/pet2nifti/wizard"
	"github.com/mrsinham/pet2nifti/internal/converter"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
	"github.com/mrsinham/pet2nifti/internal/scanner"
	"github.com/mrsinham/pet2nifti/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliOptions holds every flag of the root command and its subcommands.
type cliOptions struct {
	sourceData        string
	destinationFolder string
	subjectID         string
	sessionID         string
	tracer            string
	runID             string
	applyFilter       bool
	scannerType       string
	filterSize        string
	strictSidecar     bool
	preview           bool
	interactive       bool

	configFile string
	saveConfig string

	converterBin string
	scannerTable string
	timezone     string
	logLevel     string
	quiet        bool
}

func newRootCommand() *cobra.Command {
	o := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "pet2nifti",
		Short: "Convert PET DICOM series and ECAT 7 files to NIfTI with a JSON sidecar",
		Long: `pet2nifti converts a PET acquisition (a directory of DICOM files or an
ECAT 7 .v file) into a gzip-compressed NIfTI image using dcm2niix, optionally
smooths it to a target resolution, and writes a JSON metadata sidecar.

Outputs are written to:
  <destination>/sub-<subject>/ses-<session>/<TRACER>/sub-<subject>_ses-<session>_tracer-<TRACER>[_run-<run>]_PET.nii.gz

Subject, session and tracer are read from the header unless given explicitly.`,
		Example: `  pet2nifti --source-data ./dicom --destination-folder ./bids
  pet2nifti --source-data scan.v --destination-folder ./bids --apply-filter --scanner-type HRRT
  pet2nifti --source-data ./dicom --destination-folder ./bids --apply-filter --filter-size 6,6,5`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(o.logLevel, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, o)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.logLevel, "log-level", "info", "Diagnostic log level: debug, info, warn, error")
	pf.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress progress output")
	pf.StringVar(&o.converterBin, "converter", converter.DefaultBinary, "dcm2niix executable name or path")
	pf.StringVar(&o.scannerTable, "scanner-table", "", "YAML scanner table replacing the built-in one")
	pf.StringVar(&o.timezone, "timezone", "", "Time zone ECAT scan times are rendered in (default: local)")

	f := cmd.Flags()
	f.StringVar(&o.sourceData, "source-data", "", "DICOM directory or ECAT (.v) file to convert")
	f.StringVar(&o.destinationFolder, "destination-folder", "", "Root folder for the converted outputs")
	f.StringVar(&o.subjectID, "subject-id", "", "Subject ID (default: PatientID from the header)")
	f.StringVar(&o.sessionID, "session-id", "", "Session ID (default: study date from the header)")
	f.StringVar(&o.tracer, "tracer", "", "Tracer name (default: radiopharmaceutical from the header)")
	f.StringVar(&o.runID, "run-id", "", "Run ID appended to the file name")
	f.BoolVar(&o.applyFilter, "apply-filter", false, "Smooth the converted image with a Gaussian filter")
	f.StringVar(&o.scannerType, "scanner-type", "", "Scanner model used to pick the filter size (see 'pet2nifti scanners')")
	f.StringVar(&o.filterSize, "filter-size", "", "Explicit filter FWHM in mm, e.g. '6,6,6' (max 8 per axis)")
	f.BoolVar(&o.strictSidecar, "strict-sidecar", false, "Fail the run when the JSON sidecar cannot be written")
	f.BoolVar(&o.preview, "preview", false, "Write a PNG preview of the converted image")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "Ask for the run options and for identity fields missing from the header")
	f.StringVar(&o.configFile, "config", "", "Load run options from a YAML file")
	f.StringVar(&o.saveConfig, "save-config", "", "Save the run options to a YAML file after a successful run")

	cmd.AddCommand(newBatchCommand(o))
	cmd.AddCommand(newSynthCommand(o))
	cmd.AddCommand(newScannersCommand(o))

	return cmd
}

// applyFlags copies the flags set on the command line into cfg, so they take
// precedence over values loaded from a config file.
func (o *cliOptions) applyFlags(fs *pflag.FlagSet, cfg *pipeline.RunConfig) error {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("source-data", &cfg.SourceData, o.sourceData)
	set("destination-folder", &cfg.DestinationFolder, o.destinationFolder)
	set("subject-id", &cfg.SubjectID, o.subjectID)
	set("session-id", &cfg.SessionID, o.sessionID)
	set("tracer", &cfg.Tracer, o.tracer)
	set("run-id", &cfg.RunID, o.runID)
	set("scanner-type", &cfg.ScannerType, o.scannerType)

	if fs.Changed("apply-filter") {
		cfg.ApplyFilter = o.applyFilter
	}
	if fs.Changed("strict-sidecar") {
		cfg.StrictSidecar = o.strictSidecar
	}
	if fs.Changed("preview") {
		cfg.Preview = o.preview
	}
	if fs.Changed("filter-size") {
		fwhm, err := util.ParseFilterSize(o.filterSize)
		if err != nil {
			return err
		}
		cfg.FilterSize = fwhm
	}
	return nil
}

// newPipeline builds the conversion pipeline from the global flags.
func (o *cliOptions) newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	var table *scanner.Table
	var err error
	if o.scannerTable != "" {
		data, rerr := os.ReadFile(o.scannerTable)
		if rerr != nil {
			return nil, fmt.Errorf("error reading scanner table: %w", rerr)
		}
		table, err = scanner.Parse(data)
	} else {
		table, err = scanner.Default()
	}
	if err != nil {
		return nil, err
	}

	p := pipeline.New(converter.NewDcm2Niix(o.converterBin), table)
	p.Out = cmd.OutOrStdout()
	p.Quiet = o.quiet
	return p, nil
}

func (o *cliOptions) location() (*time.Location, error) {
	if o.timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	return loc, nil
}

func runConvert(cmd *cobra.Command, o *cliOptions) error {
	cfg := pipeline.RunConfig{}
	if o.configFile != "" {
		loaded, err := pipeline.LoadConfig(o.configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if err := o.applyFlags(cmd.Flags(), &cfg); err != nil {
		return err
	}

	p, err := o.newPipeline(cmd)
	if err != nil {
		return err
	}
	if o.interactive {
		if err := wizard.Ask(&cfg, p.Scanners.Names()); err != nil {
			return err
		}
		p.Prompt = wizard.PromptField
	}

	if cfg.SourceData == "" {
		return fmt.Errorf("--source-data is required")
	}
	if cfg.DestinationFolder == "" {
		return fmt.Errorf("--destination-folder is required")
	}

	opts := cfg.Options()
	if opts.Location, err = o.location(); err != nil {
		return err
	}

	res, err := p.Run(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !o.quiet {
		fmt.Fprintln(out)
		fmt.Fprint(out, wizard.RenderSummary(res))
	}

	if o.saveConfig != "" {
		if err := pipeline.SaveConfig(&cfg, o.saveConfig); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save config: %v\n", err)
		} else if !o.quiet {
			fmt.Fprintf(out, "Configuration saved to %s\n", o.saveConfig)
		}
	}
	return nil
}
