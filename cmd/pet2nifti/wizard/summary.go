package wizard

import (
	"fmt"
	"strings"

	"github.com/mrsinham/pet2nifti/internal/pipeline"
	"github.com/mrsinham/pet2nifti/internal/util"
)

// RenderSummary describes a finished conversion.
func RenderSummary(res *pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString(successStyle.Render("✓ Conversion complete"))
	sb.WriteString("\n\n")

	filter := "none"
	if res.FilterSize != nil {
		filter = util.FormatFilterSize(res.FilterSize) + " mm FWHM"
	}
	sidecar := res.SidecarPath
	if res.SidecarErr != nil {
		sidecar = failureStyle.Render("not written: " + res.SidecarErr.Error())
	}

	rows := []struct {
		label string
		value string
	}{
		{"Format", res.Format.String()},
		{"Subject", res.Identity.Subject},
		{"Session", res.Identity.Session},
		{"Tracer", res.Identity.Tracer},
		{"Run", res.Identity.Run},
		{"Frames", fmt.Sprintf("%d", res.Frames)},
		{"Smoothing", filter},
		{"NIfTI", res.NiftiPath},
		{"Sidecar", sidecar},
		{"Preview", res.PreviewPath},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(row.label + ":"))
		sb.WriteString(" ")
		sb.WriteString(valueStyle.Render(row.value))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderBatchSummary lists every batch job with its outcome.
func RenderBatchSummary(results []pipeline.BatchResult) string {
	var sb strings.Builder
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if failed == 0 {
		sb.WriteString(successStyle.Render(fmt.Sprintf("✓ %d conversions complete", len(results))))
	} else {
		sb.WriteString(failureStyle.Render(fmt.Sprintf("✗ %d of %d conversions failed", failed, len(results))))
	}
	sb.WriteString("\n\n")

	for _, r := range results {
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("  %s %s\n", failureStyle.Render("✗"), r.Options.SourceData))
			sb.WriteString("    " + labelStyle.Render(r.Err.Error()) + "\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", successStyle.Render("✓"), r.Options.SourceData))
		sb.WriteString("    " + labelStyle.Render("→ "+r.Result.NiftiPath) + "\n")
	}
	return sb.String()
}
