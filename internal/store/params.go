package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"AHRSentinel/internal/model"
)

// ErrParamsNotFound means no model has been fitted yet; callers must refit
// before computing a valuation.
var ErrParamsNotFound = errors.New("model parameters not found")

// ParamStore holds the single model-parameter artifact. Save replaces the
// previous artifact as a whole.
type ParamStore interface {
	Load() (model.ModelParameters, error)
	Save(p model.ModelParameters) error
}

// paramsFile is the on-disk shape of the artifact.
type paramsFile struct {
	X0          float64 `json:"X0"`
	XM          float64 `json:"X_M"`
	R           float64 `json:"r"`
	LastFitDate string  `json:"last_fit_date"`
}

// JSONParamStore keeps the artifact in a JSON file.
type JSONParamStore struct {
	Path string
}

// NewJSONParamStore creates a store backed by path.
func NewJSONParamStore(path string) *JSONParamStore {
	return &JSONParamStore{Path: path}
}

// Load reads the artifact. Returns ErrParamsNotFound if the file doesn't exist.
func (s *JSONParamStore) Load() (model.ModelParameters, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ModelParameters{}, ErrParamsNotFound
		}
		return model.ModelParameters{}, err
	}
	var f paramsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return model.ModelParameters{}, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	last, err := time.Parse("2006-01-02", f.LastFitDate)
	if err != nil {
		return model.ModelParameters{}, fmt.Errorf("decode %s: last_fit_date: %w", s.Path, err)
	}
	if f.X0 <= 0 || f.XM <= f.X0 || f.R <= 0 || f.R >= 0.5 {
		return model.ModelParameters{}, fmt.Errorf("decode %s: implausible parameters %+v", s.Path, f)
	}
	return model.ModelParameters{X0: f.X0, XM: f.XM, R: f.R, LastFitDate: last}, nil
}

// Save writes the artifact to a temporary file and renames it into place.
func (s *JSONParamStore) Save(p model.ModelParameters) error {
	data, err := json.MarshalIndent(paramsFile{
		X0:          p.X0,
		XM:          p.XM,
		R:           p.R,
		LastFitDate: p.LastFitDate.Format("2006-01-02"),
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.Path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
