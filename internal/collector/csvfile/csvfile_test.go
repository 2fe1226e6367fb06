package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/chartwise/internal/collector"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `date,open,high,low,close,volume
2025-01-03,101,103,100,102,1500
2025-01-02,100,102,99,101,1200.0
2025-01-06,102,104,101,103.5,900
`

func TestCSVFile_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*CSVFile)(nil)
}

func TestRead_SortsOldestFirst(t *testing.T) {
	series, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, int64(1200), series[0].Volume)
	assert.Equal(t, 103.5, series.Last().Close)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "day,open,high,low,close,volume\n2025-01-02,1,1,1,1,1\n"},
		{"missing column", "date,open,high,low,close,volume\n2025-01-02,1,1,1,1\n"},
		{"bad date", "date,open,high,low,close,volume\n01/02/2025,1,1,1,1,1\n"},
		{"bad price", "date,open,high,low,close,volume\n2025-01-02,x,1,1,1,1\n"},
		{"fractional volume", "date,open,high,low,close,volume\n2025-01-02,1,1,1,1,1.5\n"},
		{"inconsistent bar", "date,open,high,low,close,volume\n2025-01-02,1,1,2,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidSeries), "got %v", err)
		})
	}
}

func TestRead_HeaderIsCaseInsensitive(t *testing.T) {
	series, err := Read(strings.NewReader("Date,Open,High,Low,Close,Volume\n2025-01-02,1,2,1,2,10\n"))
	require.NoError(t, err)
	assert.Len(t, series, 1)
}

func TestCSVFile_FetchHistory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sample), 0o644))

	c := New(dir)
	assert.Equal(t, "csv", c.Name())

	series, err := c.FetchHistory(context.Background(), "aapl", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, series, 3)

	series, err = c.FetchHistory(context.Background(), "AAPL",
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 102.0, series[0].Close)

	_, err = c.FetchHistory(context.Background(), "AAPL",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestCSVFile_MissingSymbol(t *testing.T) {
	_, err := New(t.TempDir()).FetchHistory(context.Background(), "MSFT", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, core.ErrSymbolNotFound))
}

func TestCSVFile_RejectsPathTraversal(t *testing.T) {
	for _, symbol := range []string{"", "../etc/passwd", `a\b`} {
		_, err := New(t.TempDir()).FetchHistory(context.Background(), symbol, time.Time{}, time.Time{})
		assert.Error(t, err, symbol)
	}
}
