package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/chartwise/internal/app"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/newthinker/chartwise/internal/report"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportOutput is the JSON shape of `chartwise indicators`.
type reportOutput struct {
	Symbol string           `json:"symbol"`
	Report indicator.Report `json:"report"`
	Absent []string         `json:"absent"`
}

func writeReport(w io.Writer, format, symbol string, rep indicator.Report) error {
	if format == formatJSON {
		absent := rep.Absent()
		if absent == nil {
			absent = []string{}
		}
		return writeJSON(w, reportOutput{Symbol: symbol, Report: rep, Absent: absent})
	}
	_, err := io.WriteString(w, report.Render(symbol, rep))
	return err
}

func writeResults(w io.Writer, format string, results []app.Result) error {
	if format == formatJSON {
		return writeJSON(w, results)
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "=== %s ===\n", res.Symbol)
		if res.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", res.Error)
		}

		if rep, ok := res.Report.Get(); ok {
			fmt.Fprintln(w)
			io.WriteString(w, report.Render(res.Symbol, rep))
		} else {
			fmt.Fprintln(w, "No indicator report: not enough price history.")
		}

		fmt.Fprintln(w)
		if len(res.Signals) == 0 {
			fmt.Fprintln(w, "No signals.")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "AGENT\tSIGNAL\tCONFIDENCE\tREASONING\t")
		fmt.Fprintln(tw, "-----\t------\t----------\t---------\t")
		for _, s := range res.Signals {
			fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t\n",
				s.Agent, strings.ToUpper(string(s.Signal)), s.Confidence*100, oneLine(s.Reasoning))
		}
		tw.Flush()

		fmt.Fprintln(w)
		if c := res.Consensus; c != nil && len(res.Signals) > 1 {
			fmt.Fprintf(w, "Consensus: %s (%.0f%%) - %s\n",
				strings.ToUpper(string(c.Signal)), c.Confidence*100, c.Reasoning)
		}
		if r := res.Risk; r != nil {
			fmt.Fprintf(w, "Risk: %.2f, max position %.1f%% of portfolio", r.RiskScore, r.MaxPositionSize*100)
			if len(r.RiskFactors) > 0 {
				fmt.Fprintf(w, " (%s)", strings.Join(r.RiskFactors, "; "))
			}
			fmt.Fprintln(w)
		}
		if d := res.Decision; d != nil {
			fmt.Fprintf(w, "Decision: %s %d (%.0f%%, %s) - %s\n",
				strings.ToUpper(string(d.Action)), d.Quantity, d.Confidence*100, d.Source, oneLine(d.Reasoning))
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
