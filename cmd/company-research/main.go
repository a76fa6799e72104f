// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the company-research CLI.
// Implements: prd001-scraping, prd002-context, prd003-sub-agents,
//             prd004-supervision, prd005-pattern-search, prd006-reporting
//             (CLI surface).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/company-research/internal/secrets"
	"github.com/pdiddy/company-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the company-research CLI.
var rootCmd = &cobra.Command{
	Use:   "company-research",
	Short: "Multi-agent research reports on a company's private investing",
	Long: `company-research fetches a company's public pages, dispatches specialized
research sub-agents over the corpus, runs a supervisor review/refinement loop,
and merges the findings into a markdown report with global citations.

The research subcommand runs the whole pipeline; report re-renders an archived
run and patterns lists the pattern-search index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./company-research.yaml or ~/.config/company-research/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("company-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "company-research"))
		}
	}

	viper.SetEnvPrefix("COMPANY_RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig builds the stage configuration from viper with defaults.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("fetch.max_retries", 5)
	viper.SetDefault("research.model", "gemini-3-flash-preview")
	viper.SetDefault("research.max_retries", 3)
	viper.SetDefault("research.initial_workers", 4)
	viper.SetDefault("research.refinement_workers", 2)
	viper.SetDefault("research.max_refinement_iterations", 2)
	viper.SetDefault("report.archive_dir", "archive")
	viper.SetDefault("report.output_dir", "output")

	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			AllowedDomains: viper.GetStringSlice("fetch.allowed_domains"),
			MaxRetries:     viper.GetInt("fetch.max_retries"),
		},
		Research: types.ResearchConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("research.model"),
				APIKey:     secretDefault("gemini-api-key", viper.GetString("research.api_key")),
				MaxRetries: viper.GetInt("research.max_retries"),
			},
			InitialWorkers:          viper.GetInt("research.initial_workers"),
			RefinementWorkers:       viper.GetInt("research.refinement_workers"),
			MaxRefinementIterations: viper.GetInt("research.max_refinement_iterations"),
			ContextByteBudget:       viper.GetInt("research.context_byte_budget"),
			DateCutoff:              viper.GetString("research.date_cutoff"),
		},
		Report: types.ReportConfig{
			ArchiveDir: viper.GetString("report.archive_dir"),
			OutputDir:  viper.GetString("report.output_dir"),
		},
	}
	return cfg
}

// newLogger builds the CLI logger. Verbose mode switches to development
// output with debug level.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapTimeEncoder
	return cfg.Build()
}

func zapTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
