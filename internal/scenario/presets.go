package scenario

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/enerkit/gridprep/internal/apperr"
)

// Preset names a ready-made opts/ll pair so recurring scenarios do not have
// to be spelled out on the command line.
type Preset struct {
	Description string `yaml:"description,omitempty"`
	Opts        string `yaml:"opts"`
	LL          string `yaml:"ll"`
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads a scenario preset file:
//
//	presets:
//	  lowco2-daily:
//	    description: daily resolution, 5% of baseline emissions
//	    opts: 24H-Co2L0.05
//	    ll: v1.5
//
// Unknown fields are rejected so typos surface at load time.
func LoadPresets(path string) (map[string]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}

	var file presetFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}

	if len(file.Presets) == 0 {
		return nil, apperr.Userf("preset file %s defines no presets", path)
	}
	return file.Presets, nil
}

// FindPreset looks up a preset by name. The error lists the available names
// so a typo is easy to correct.
func FindPreset(presets map[string]Preset, name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Preset{}, apperr.Userf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	return p, nil
}
