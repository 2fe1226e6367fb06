// Package csvfile reads daily price series from local CSV files laid out as
// date,open,high,low,close,volume with a header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/chartwise/internal/core"
)

const dateLayout = "2006-01-02"

var header = []string{"date", "open", "high", "low", "close", "volume"}

// CSVFile serves <dir>/<SYMBOL>.csv files
type CSVFile struct {
	dir string
}

// New creates a collector rooted at dir
func New(dir string) *CSVFile {
	return &CSVFile{dir: dir}
}

func (c *CSVFile) Name() string {
	return "csv"
}

// FetchHistory loads the symbol's file and keeps bars dated within [start, end].
// A zero start or end leaves that side open.
func (c *CSVFile) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return nil, fmt.Errorf("invalid symbol: %q", symbol)
	}

	path := filepath.Join(c.dir, strings.ToUpper(symbol)+".csv")
	series, err := ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s", symbol))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	filtered := make(core.PriceSeries, 0, len(series))
	for _, p := range series {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		if !end.IsZero() && p.Date.After(end) {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s in range", symbol))
	}
	return filtered, nil
}

// ReadFile parses a price CSV from disk.
func ReadFile(path string) (core.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	series, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// Read parses a price CSV and returns bars sorted oldest first. Every bar is
// checked with core.PriceSeries.Validate.
func Read(r io.Reader) (core.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("missing header"))
		}
		return nil, core.WrapError(core.ErrInvalidSeries, err)
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(first[i]), col) {
			return nil, core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("header column %d: expected %q, got %q", i+1, col, first[i]))
		}
	}

	var series core.PriceSeries
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidSeries, err)
		}

		line, _ := reader.FieldPos(0)
		p, err := parseRecord(record)
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("line %d: %w", line, err))
		}
		series = append(series, p)
	}

	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

func parseRecord(record []string) (core.PricePoint, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
	if err != nil {
		return core.PricePoint{}, fmt.Errorf("date: %w", err)
	}

	var prices [4]float64
	for i := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return core.PricePoint{}, fmt.Errorf("%s: %w", header[i+1], err)
		}
		prices[i] = v
	}

	volume, err := parseVolume(strings.TrimSpace(record[5]))
	if err != nil {
		return core.PricePoint{}, fmt.Errorf("volume: %w", err)
	}

	return core.PricePoint{
		Date:   date,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}, nil
}

// parseVolume accepts integers and integral floats such as "1200.0".
func parseVolume(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not a whole number: %s", s)
	}
	return int64(f), nil
}
