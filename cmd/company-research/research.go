// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// research.go wires the whole pipeline: fetch seed pages into the store,
// run the supervisor's dispatch/review/refine loop, render the report,
// and archive the run.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/company-research/internal/agent"
	"github.com/pdiddy/company-research/internal/fetch"
	"github.com/pdiddy/company-research/internal/llm"
	"github.com/pdiddy/company-research/internal/pagestore"
	"github.com/pdiddy/company-research/internal/patterns"
	"github.com/pdiddy/company-research/internal/rank"
	"github.com/pdiddy/company-research/internal/report"
	"github.com/pdiddy/company-research/internal/supervisor"
)

var researchCmd = &cobra.Command{
	Use:   "research <company>",
	Short: "Run a full research pipeline for a company",
	Long: `research fetches the seed URLs, runs the six core research topics (plus any
--topic extras) through the sub-agent pool, reviews and refines the findings,
and writes a markdown report with global citations.

Seed URLs come from --seed flags or the fetch.seed_urls config list; every URL
must be inside fetch.allowed_domains.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringSlice("seed", nil, "seed URL to fetch (repeatable)")
	researchCmd.Flags().StringSlice("topic", nil, "extra research topic beyond the core six (repeatable)")
	researchCmd.Flags().String("keywords", "", "YAML file overriding the category keyword table")
	researchCmd.Flags().String("checklists", "", "YAML file overriding the reflection checklists")
	researchCmd.Flags().Bool("dry-run", false, "fetch and archive pages, then stop before any model call")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	company := args[0]
	ctx := cmd.Context()

	log, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg := pipelineConfig()

	seeds, _ := cmd.Flags().GetStringSlice("seed")
	if len(seeds) == 0 {
		seeds = seedURLsFromConfig()
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seed URLs: pass --seed or set fetch.seed_urls in config")
	}

	// Fetch phase.
	store := pagestore.New()
	fetcher := fetch.New(cfg.Fetch, log)
	fetched, failed := fetcher.Populate(ctx, store, seeds)
	log.Info("fetch complete", zap.Int("fetched", fetched), zap.Int("failed", failed))

	// Archive the corpus before research so a failed run is replayable.
	archive, err := pagestore.OpenArchive(cfg.Report.ArchiveDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	runID := uuid.NewString()
	if err := archive.BeginRun(ctx, runID, company); err != nil {
		return err
	}
	if err := archive.SavePages(ctx, runID, store.Snapshot()); err != nil {
		log.Warn("archiving pages failed", zap.Error(err))
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		fmt.Fprintf(os.Stderr, "Dry run: %d pages fetched and archived under run %s\n", store.Len(), runID)
		return nil
	}
	if store.Len() == 0 {
		return supervisor.ErrNoPages
	}

	// Configuration tables, with optional YAML overrides.
	table := rank.DefaultTable()
	if path, _ := cmd.Flags().GetString("keywords"); path != "" {
		if table, err = rank.LoadTable(path); err != nil {
			return fmt.Errorf("loading keyword table: %w", err)
		}
	}
	lists := agent.DefaultChecklists()
	if path, _ := cmd.Flags().GetString("checklists"); path != "" {
		if lists, err = agent.LoadChecklists(path); err != nil {
			return fmt.Errorf("loading checklists: %w", err)
		}
	}

	// Model backends, retry-wrapped.
	gemini, err := llm.NewGemini(ctx, cfg.Research.AIConfig)
	if err != nil {
		return err
	}
	backend := llm.WithRetry(gemini, gemini, cfg.Research.MaxRetries)

	executor := agent.NewExecutor(backend, backend, lists, company, cfg.Research.DateCutoff, log)
	sup := supervisor.New(cfg.Research, executor, backend, store.Snapshot(),
		table, patterns.NewIndex(), company, log)

	topics := supervisor.CoreTopics(company)
	extras, _ := cmd.Flags().GetStringSlice("topic")
	topics = append(topics, extras...)

	merged, err := sup.Run(ctx, topics)
	if err != nil {
		return err
	}

	// Render and persist.
	markdown := report.Render(company, merged)
	path, err := report.WriteFile(cfg.Report.OutputDir, company, markdown)
	if err != nil {
		return err
	}

	reportArchive, err := report.NewArchive(archive.DB())
	if err != nil {
		log.Warn("preparing report archive failed", zap.Error(err))
	} else {
		if err := reportArchive.SaveNotes(ctx, runID, merged); err != nil {
			log.Warn("archiving notes failed", zap.Error(err))
		}
		if err := reportArchive.SaveReport(ctx, runID, company, markdown); err != nil {
			log.Warn("archiving report failed", zap.Error(err))
		}
	}

	fmt.Fprintf(os.Stderr, "Report written to %s (run %s)\n", path, runID)
	return nil
}

// seedURLsFromConfig reads fetch.seed_urls so standing research targets
// can live in the config file instead of flags.
func seedURLsFromConfig() []string {
	return viper.GetStringSlice("fetch.seed_urls")
}
