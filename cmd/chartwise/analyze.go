package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeDays   int
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER...",
	Short: "Fetch history, compute indicators and run the configured agents",
	Long: `Fetch daily history for each ticker through the configured collector,
compute the indicator report and run every agent in analysis.agents.
Tickers are analysed concurrently; output keeps argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "trading days of history (default analysis.history_days)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatText, "output format: text or json")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeDays < 0 {
		return fmt.Errorf("--days must be positive")
	}
	if analyzeDays > 0 {
		cfg.Analysis.HistoryDays = analyzeDays
	}

	log := newLogger(cfg)
	defer log.Sync()

	a, _, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	results := a.Analyze(cmd.Context(), args)
	if err := writeResults(cmd.OutOrStdout(), analyzeFormat, results); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	log.Debug("analysis finished", zap.Int("tickers", len(results)), zap.Int("failed", failed))

	if failed == len(results) {
		return fmt.Errorf("all %d tickers failed", failed)
	}
	return nil
}
