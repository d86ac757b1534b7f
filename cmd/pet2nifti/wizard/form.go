package wizard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
	"github.com/mrsinham/pet2nifti/internal/smoothing"
	"github.com/mrsinham/pet2nifti/internal/util"
)

// explicitSize is the scanner choice meaning "use the typed filter size".
const explicitSize = ""

// Ask fills cfg interactively. Fields already set are offered as defaults.
func Ask(cfg *pipeline.RunConfig, scanners []string) error {
	filterSize := util.FormatFilterSize(cfg.FilterSize)

	scannerOptions := []huh.Option[string]{huh.NewOption("Explicit filter size", explicitSize)}
	for _, name := range scanners {
		scannerOptions = append(scannerOptions, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("source").
				Title("Source data").
				Description("DICOM directory or ECAT (.v) file").
				Value(&cfg.SourceData).
				Validate(validateSource),

			huh.NewInput().
				Key("destination").
				Title("Destination folder").
				Value(&cfg.DestinationFolder).
				Validate(validateRequired("destination folder")),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("subject").
				Title("Subject ID").
				Description("Leave empty to read it from the header").
				Value(&cfg.SubjectID).
				Validate(validateIdentityValue),

			huh.NewInput().
				Key("session").
				Title("Session ID").
				Description("Leave empty to use the study date").
				Value(&cfg.SessionID).
				Validate(validateIdentityValue),

			huh.NewInput().
				Key("tracer").
				Title("Tracer").
				Description("Leave empty to use the radiopharmaceutical").
				Value(&cfg.Tracer).
				Validate(validateIdentityValue),

			huh.NewInput().
				Key("run").
				Title("Run ID").
				Value(&cfg.RunID).
				Validate(validateIdentityValue),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("apply_filter").
				Title("Smooth the converted image?").
				Value(&cfg.ApplyFilter),

			huh.NewSelect[string]().
				Key("scanner").
				Title("Scanner type").
				Options(scannerOptions...).
				Value(&cfg.ScannerType),

			huh.NewInput().
				Key("filter_size").
				Title("Filter size (mm)").
				Placeholder("e.g., 6,6,6").
				Value(&filterSize).
				Validate(validateFilterSize),

			huh.NewConfirm().
				Key("preview").
				Title("Write a QC preview image?").
				Value(&cfg.Preview),
		),
	).WithShowHelp(false).WithShowErrors(true)

	if err := form.Run(); err != nil {
		return fmt.Errorf("running form: %w", err)
	}

	cfg.FilterSize = nil
	if strings.TrimSpace(filterSize) != "" {
		fwhm, err := util.ParseFilterSize(filterSize)
		if err != nil {
			return err
		}
		cfg.FilterSize = fwhm
	}
	return nil
}

// PromptField asks for one identity field the header could not provide. An
// empty answer is returned as "".
func PromptField(field string) (string, error) {
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Enter the %s", field)).
				Description(fmt.Sprintf("The %s could not be read from the header", field)).
				Value(&value).
				Validate(validateIdentityValue),
		),
	).WithShowHelp(false).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validateSource(s string) error {
	if err := validateRequired("source data")(s); err != nil {
		return err
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("%s does not exist", s)
	}
	return nil
}

func validateIdentityValue(s string) error {
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("must not contain path separators")
	}
	return nil
}

func validateFilterSize(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fwhm, err := util.ParseFilterSize(s)
	if err != nil {
		return err
	}
	return smoothing.ValidateFWHM(fwhm)
}
