package features

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
)

type scalerFile struct {
	Columns []struct {
		Name string  `yaml:"name"`
		Min  float64 `yaml:"min"`
		Max  float64 `yaml:"max"`
	} `yaml:"columns"`
}

// LoadScaler reads training-time column statistics. Columns must be listed in
// model order:
//
//	columns:
//	  - {name: close, min: 10.2, max: 98.4}
//	  ...
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler file: %w", err)
	}
	return ParseScaler(data)
}

// ParseScaler decodes scaler statistics from YAML.
func ParseScaler(data []byte) (*Scaler, error) {
	var f scalerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scaler file: %w", err)
	}
	if len(f.Columns) != models.NumFeatures {
		return nil, fmt.Errorf("scaler has %d columns, want %d: %w", len(f.Columns), models.NumFeatures, errs.ErrSchema)
	}
	var s Scaler
	for i, c := range f.Columns {
		if c.Name != models.FeatureColumns[i] {
			return nil, fmt.Errorf("scaler column %d is %q, want %q: %w", i, c.Name, models.FeatureColumns[i], errs.ErrSchema)
		}
		if c.Max < c.Min {
			return nil, fmt.Errorf("scaler column %s has max < min: %w", c.Name, errs.ErrSchema)
		}
		s.Ranges[i] = ColumnRange{Min: c.Min, Max: c.Max}
	}
	return &s, nil
}
