package flashdbsim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ryogrid/flashdbsim/errs"
	"github.com/ryogrid/flashdbsim/ftl"
	"github.com/ryogrid/flashdbsim/vfd"
)

// FileConfig is the on-disk shape LoadConfig parses (spec.md §9's ambient
// configuration concern, expanded in SPEC_FULL.md §3).
type FileConfig struct {
	Variant   string    `yaml:"variant"`
	Algorithm string    `yaml:"algorithm"`
	Geometry  vfd.Config `yaml:"geometry"`
	FTL       ftl.Config `yaml:"ftl"`
}

// LoadConfig reads and validates a YAML config file, resolving the
// variant/algorithm selector strings into their typed enums.
func LoadConfig(path string) (vfd.Variant, ftl.Algorithm, vfd.Config, ftl.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, vfd.Config{}, ftl.Config{}, err
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return 0, 0, vfd.Config{}, ftl.Config{}, fmt.Errorf("%w: %v", errs.ErrModuleInitFailed, err)
	}

	variant, err := parseVariant(fc.Variant)
	if err != nil {
		return 0, 0, vfd.Config{}, ftl.Config{}, err
	}
	algo, err := parseAlgorithm(fc.Algorithm)
	if err != nil {
		return 0, 0, vfd.Config{}, ftl.Config{}, err
	}
	if err := fc.Geometry.Validate(); err != nil {
		return 0, 0, vfd.Config{}, ftl.Config{}, err
	}
	return variant, algo, fc.Geometry, fc.FTL, nil
}

func parseVariant(s string) (vfd.Variant, error) {
	switch s {
	case "nand01":
		return vfd.NAND01, nil
	case "nand02":
		return vfd.NAND02, nil
	case "nand03":
		return vfd.NAND03, nil
	case "nand04":
		return vfd.NAND04, nil
	default:
		return 0, fmt.Errorf("%w: unknown vfd variant %q", errs.ErrWrongModuleId, s)
	}
}

func parseAlgorithm(s string) (ftl.Algorithm, error) {
	switch s {
	case "ftl01":
		return ftl.FTL01, nil
	default:
		return 0, fmt.Errorf("%w: unknown ftl algorithm %q", errs.ErrWrongModuleId, s)
	}
}
