package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Versions lists the releases, newest first.
	Versions []string `yaml:"versions"`

	// Baseline is the comparison locale for Expect.Newer. Defaults to "en".
	Baseline string `yaml:"baseline,omitempty"`

	// Releases maps version → locale → key → value. A null value is a key
	// reported without text; a missing key is unreported; a missing locale
	// did not exist at that release.
	Releases map[string]map[string]map[string]*string `yaml:"releases"`

	Expect Expectations `yaml:"expect"`
}

// Expectations lists what the scenario must produce.
type Expectations struct {
	// Births maps locale → key → expected record.
	Births map[string]map[string]ExpectedBirth `yaml:"births,omitempty"`

	// Newer maps locale → expected newer set against the baseline.
	Newer map[string][]string `yaml:"newer,omitempty"`
}

// ExpectedBirth is one expected record. A nil Previous expects absent.
type ExpectedBirth struct {
	Birth    string  `yaml:"birth"`
	Previous *string `yaml:"previous"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "birth:" vs "births:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Versions) == 0 {
		return errors.New("versions list is required and must be non-empty")
	}
	for version := range s.Releases {
		if !slices.Contains(s.Versions, version) {
			return fmt.Errorf("release %q is not listed in versions", version)
		}
	}
	if len(s.Expect.Births) == 0 && len(s.Expect.Newer) == 0 {
		return errors.New("expect must list births or newer sets")
	}
	for locale, births := range s.Expect.Births {
		for key, b := range births {
			if !slices.Contains(s.Versions, b.Birth) {
				return fmt.Errorf("births.%s[%q]: unknown version %q", locale, key, b.Birth)
			}
		}
	}
	if s.Baseline == "" {
		s.Baseline = "en"
	}
	return nil
}
