// Package csvfile implements a data provider that reads OHLCV bars from
// local CSV files, for offline backtests and fixtures.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marketcalls/quantbt/internal/core"
)

// CSVFile serves history from a directory of CSV files. Files are looked up
// as <SYMBOL>_<interval>.csv, falling back to <SYMBOL>.csv. The expected
// header is: timestamp,open,high,low,close,volume.
type CSVFile struct {
	dir string
}

// New creates a CSV file provider rooted at dir
func New(dir string) *CSVFile {
	return &CSVFile{dir: dir}
}

func (c *CSVFile) Name() string {
	return "csvfile"
}

// FetchQuote returns a quote synthesized from the last daily bar
func (c *CSVFile) FetchQuote(symbol string) (*core.Quote, error) {
	bars, err := c.FetchHistory(symbol, time.Time{}, time.Now(), "1d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.ErrNoData
	}

	last := bars[len(bars)-1]
	return &core.Quote{
		Symbol:   symbol,
		Exchange: core.ExchangeLocal,
		Price:    last.Close,
		Open:     last.Open,
		High:     last.High,
		Low:      last.Low,
		Volume:   last.Volume,
		Time:     last.Time,
		Source:   "csvfile",
	}, nil
}

// FetchHistory reads bars from disk and filters them to [start, end]
func (c *CSVFile) FetchHistory(symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	path, err := c.resolve(symbol, interval)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("opening %s: %w", path, err))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("reading %s: %w", path, err))
	}

	var bars []core.OHLCV
	for i, rec := range records {
		if len(rec) < 6 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "timestamp") {
			continue // header
		}

		ts, err := parseTime(rec[0])
		if err != nil {
			return nil, core.WrapError(core.ErrProviderFailed,
				fmt.Errorf("%s line %d: bad timestamp %q", path, i+1, rec[0]))
		}

		open, _ := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		high, _ := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		low, _ := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		closePrice, _ := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
		volume, _ := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)

		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}

		bars = append(bars, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   int64(volume),
			Time:     ts,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return bars, nil
}

func (c *CSVFile) resolve(symbol, interval string) (string, error) {
	candidates := []string{
		filepath.Join(c.dir, fmt.Sprintf("%s_%s.csv", symbol, interval)),
		filepath.Join(c.dir, symbol+".csv"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", core.WrapError(core.ErrSymbolNotFound,
		fmt.Errorf("no CSV file for %s in %s", symbol, c.dir))
}

// parseTime accepts epoch seconds, YYYY-MM-DD, or RFC3339
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
