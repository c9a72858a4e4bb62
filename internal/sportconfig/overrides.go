package sportconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Overrides is the YAML shape for per-sport calibration overrides: a
// top-level map keyed by sport with yaml-tagged numeric fields.
type Overrides map[models.Sport]struct {
	SoftDeviation      *float64 `yaml:"soft_deviation"`
	HardDeviation      *float64 `yaml:"hard_deviation"`
	CompressionFactor  *float64 `yaml:"compression_factor"`
	EdgeMinProbability *float64 `yaml:"edge_min_probability"`
	LeanMinProbability *float64 `yaml:"lean_min_probability"`
	AlignedTolerance   *float64 `yaml:"aligned_tolerance"`
}

// LoadOverrides reads a YAML overrides file from disk. A missing file is not
// an error: absence of overrides means "use the LOCKED defaults."
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("read calibration overrides: %w", err)
	}
	var overrides Overrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse calibration overrides: %w", err)
	}
	return overrides, nil
}

// Apply layers the overrides on top of the registry's LOCKED defaults.
func (o Overrides) Apply(r *Registry) error {
	for sport, ov := range o {
		cfg, err := r.ConfigFor(sport)
		if err != nil {
			continue // unknown sport in the override file is ignored, not fatal
		}
		if ov.SoftDeviation != nil {
			cfg.SoftDeviation = *ov.SoftDeviation
		}
		if ov.HardDeviation != nil {
			cfg.HardDeviation = *ov.HardDeviation
		}
		if ov.CompressionFactor != nil {
			cfg.CompressionFactor = *ov.CompressionFactor
		}
		if ov.EdgeMinProbability != nil {
			cfg.EdgeMinProbability = *ov.EdgeMinProbability
		}
		if ov.LeanMinProbability != nil {
			cfg.LeanMinProbability = *ov.LeanMinProbability
		}
		if ov.AlignedTolerance != nil {
			cfg.AlignedTolerance = *ov.AlignedTolerance
		}
		if err := r.Override(sport, cfg); err != nil {
			return err
		}
	}
	return nil
}
