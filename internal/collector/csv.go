package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

var csvTimeLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// CSVFetcher implements Fetcher over a history file with a header row
// containing at least time, open, high, low and close.
type CSVFetcher struct {
	Path string
}

// NewCSVFetcher creates a fetcher reading path.
func NewCSVFetcher(path string) *CSVFetcher {
	return &CSVFetcher{Path: path}
}

func (f *CSVFetcher) Name() string { return "csv" }

// FetchDailyHistory reads every row of the file. Symbol and currency are
// ignored: the file holds a single asset.
func (f *CSVFetcher) FetchDailyHistory(_ context.Context, _, _ string) ([]model.OHLCV, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses history rows. Empty price cells are read as NaN so that
// validation reports them as missing.
func ReadCSV(r io.Reader) ([]model.OHLCV, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: history has no %q column", calculator.ErrInvalidBar, name)
		}
	}
	volCol, hasVol := col["volumefrom"]
	if !hasVol {
		volCol, hasVol = col["volume"]
	}

	var bars []model.OHLCV
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", calculator.ErrInvalidBar, line, err)
		}
		ts, err := parseTime(rec[col["time"]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", calculator.ErrInvalidBar, line, err)
		}
		bar := model.OHLCV{Time: ts}
		for _, fld := range []struct {
			name string
			dst  *float64
		}{{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close}} {
			v, err := parsePrice(rec[col[fld.name]])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d %s: %v", calculator.ErrInvalidBar, line, fld.name, err)
			}
			*fld.dst = v
		}
		if hasVol {
			bar.Volume, _ = strconv.ParseFloat(strings.TrimSpace(rec[volCol]), 64)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// SaveCSV writes the rows to path, replacing any previous file atomically.
func SaveCSV(path string, rows []model.OHLCV) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write([]string{"time", "open", "high", "low", "close", "volume"})
	for _, r := range rows {
		_ = w.Write([]string{
			r.Time.UTC().Format("2006-01-02"),
			strconv.FormatFloat(r.Open, 'f', -1, 64),
			strconv.FormatFloat(r.High, 'f', -1, 64),
			strconv.FormatFloat(r.Low, 'f', -1, 64),
			strconv.FormatFloat(r.Close, 'f', -1, 64),
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
