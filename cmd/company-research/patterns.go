// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// patterns.go inspects the pattern search index from the command line,
// either listing the registry or scanning an archived run's pages.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/company-research/internal/pagestore"
	"github.com/pdiddy/company-research/internal/patterns"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the pattern search index",
	Long: `patterns lists every registered extraction pattern with its expression and
context window. With --scan, the named patterns are run against the pages of
the most recent archived run and the match counts are printed.`,
	RunE: runPatterns,
}

func init() {
	patternsCmd.Flags().StringSlice("scan", nil, "pattern name to scan against the latest archived run (repeatable)")
	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(cmd *cobra.Command, args []string) error {
	idx := patterns.NewIndex()

	scan, _ := cmd.Flags().GetStringSlice("scan")
	if len(scan) > 0 {
		return scanPatterns(cmd, idx, scan)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONTEXT LINES\tEXPRESSION")
	for _, name := range idx.Names() {
		p, _ := idx.Get(name)
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.ContextLines, p.Matcher.String())
	}
	return w.Flush()
}

func scanPatterns(cmd *cobra.Command, idx *patterns.Index, names []string) error {
	ctx := cmd.Context()
	cfg := pipelineConfig()

	archive, err := pagestore.OpenArchive(cfg.Report.ArchiveDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	runID, err := archive.LatestRun(ctx)
	if err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("archive holds no runs")
	}
	pages, err := archive.LoadPages(ctx, runID)
	if err != nil {
		return err
	}

	matches := idx.Search(names, pages)
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.PatternName]++
	}

	fmt.Printf("Run %s: %d pages, %d matches\n", runID, len(pages), len(matches))
	for _, name := range names {
		fmt.Printf("  %-20s %d\n", name, counts[name])
	}
	return nil
}
