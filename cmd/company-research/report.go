// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// report.go re-renders a report from archived merged notes, so wording
// changes in the renderer do not require re-fetching or re-researching.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/company-research/internal/pagestore"
	"github.com/pdiddy/company-research/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Re-render the report for an archived run",
	Long: `report loads the merged notes of an archived run and renders the markdown
report again. Without a run ID the most recent run is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Bool("stdout", false, "print the report instead of writing a file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := pipelineConfig()

	archive, err := pagestore.OpenArchive(cfg.Report.ArchiveDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	} else {
		runID, err = archive.LatestRun(ctx)
		if err != nil {
			return err
		}
		if runID == "" {
			return fmt.Errorf("archive holds no runs")
		}
	}

	reportArchive, err := report.NewArchive(archive.DB())
	if err != nil {
		return err
	}

	merged, err := reportArchive.LoadNotes(ctx, runID)
	if err != nil {
		return err
	}
	company, _, err := reportArchive.LoadReport(ctx, runID)
	if err != nil {
		return err
	}

	markdown := report.Render(company, merged)

	if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
		fmt.Print(markdown)
		return nil
	}

	path, err := report.WriteFile(cfg.Report.OutputDir, company, markdown)
	if err != nil {
		return err
	}
	if err := reportArchive.SaveReport(ctx, runID, company, markdown); err != nil {
		fmt.Fprintf(os.Stderr, "warning: updating archived report failed: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s (run %s)\n", path, runID)
	return nil
}
