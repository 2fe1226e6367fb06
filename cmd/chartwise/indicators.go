package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/newthinker/chartwise/internal/collector/csvfile"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/spf13/cobra"
)

var (
	indicatorsFile   string
	indicatorsSymbol string
	indicatorsFormat string
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Compute the indicator report for a CSV price file",
	Long: `Compute the indicator report for a local CSV file with the header
date,open,high,low,close,volume. No network access and no agents.`,
	Args: cobra.NoArgs,
	RunE: runIndicators,
}

func init() {
	indicatorsCmd.Flags().StringVar(&indicatorsFile, "file", "", "CSV price file (required)")
	indicatorsCmd.Flags().StringVar(&indicatorsSymbol, "symbol", "", "symbol label (default: file name)")
	indicatorsCmd.Flags().StringVarP(&indicatorsFormat, "format", "f", formatText, "output format: text or json")
	indicatorsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(indicatorsCmd)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	if err := checkFormat(indicatorsFormat); err != nil {
		return err
	}

	series, err := csvfile.ReadFile(indicatorsFile)
	if err != nil {
		return err
	}

	symbol := indicatorsSymbol
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(indicatorsFile), filepath.Ext(indicatorsFile)))
	}

	rep, ok := indicator.Compute(series).Get()
	if !ok {
		return core.WrapError(core.ErrInsufficientData, fmt.Errorf("%s: %d bars", indicatorsFile, len(series)))
	}

	return writeReport(cmd.OutOrStdout(), indicatorsFormat, symbol, rep)
}
