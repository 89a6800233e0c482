package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"AHRSentinel/internal/model"
)

var csvLogHeader = []string{"Date", "Time", "AHR999"}

// CSVLog appends valuation rows to a CSV file. It assumes a single writer.
type CSVLog struct {
	Path string
}

// NewCSVLog creates a log backed by path. The file is created on first append.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{Path: path}
}

// Append writes one row, adding the header when the file is new.
func (l *CSVLog) Append(e model.ValuationEntry) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open valuation log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = w.Write(csvLogHeader)
	}
	_ = w.Write([]string{e.Date, e.Time, strconv.FormatFloat(e.Value, 'f', -1, 64)})
	w.Flush()
	return w.Error()
}

// ReadAll returns every row in file order. A missing file is an empty log.
func (l *CSVLog) ReadAll() ([]model.ValuationEntry, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read valuation log header: %w", err)
	}
	var out []model.ValuationEntry
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read valuation log: %w", err)
		}
		v, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("read valuation log: %w", err)
		}
		out = append(out, model.ValuationEntry{Date: rec[0], Time: rec[1], Value: v})
	}
	return out, nil
}

func (l *CSVLog) Close() error { return nil }
