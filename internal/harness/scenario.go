package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/enquinity/pdquery/internal/queryir"
)

// Engine names used in scenarios and results.
const (
	EngineCollection = "collection"
	EngineSQLite     = "sqlite"
)

// Scenario defines a parity scenario: one query run against the
// collection engine and against SQLite, both loaded with the same rows.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Model is the path of the entity model (YAML or CUE). Relative paths
	// are resolved against the scenario file's directory.
	Model string `yaml:"model"`

	// Data holds the rows of each entity.
	Data map[string][]map[string]any `yaml:"data"`

	// IndexedBy declares a unique index on the collection table.
	IndexedBy string `yaml:"indexed_by,omitempty"`

	// Engines restricts the engines the query runs on. Empty means both.
	Engines []string `yaml:"engines,omitempty"`

	// Query is the query under test.
	Query queryir.Document `yaml:"query"`

	// Assertions are checked against every engine's result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one aspect of an engine result.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Values are the expected key values, in order (keys).
	Values []any `yaml:"values,omitempty"`

	// Count is the expected row count, count result or affected rows
	// (count, affected).
	Count *int `yaml:"count,omitempty"`

	// Rows are the expected rows, in order. Only listed fields are
	// compared (rows).
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`

	// Portable is the expected portability verdict (portable).
	Portable *bool `yaml:"portable,omitempty"`
}

// Assertion type constants.
const (
	AssertKeys     = "keys"
	AssertCount    = "count"
	AssertAffected = "affected"
	AssertRows     = "rows"
	AssertError    = "error"
	AssertPortable = "portable"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if scenario.Query.Kind == "" {
		scenario.Query.Kind = queryir.KindSelect
	}
	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Query.Entity == "" {
		return fmt.Errorf("query.entity is required")
	}
	switch s.Query.Kind {
	case queryir.KindSelect, queryir.KindCount, queryir.KindUpdate, queryir.KindDelete:
	default:
		return fmt.Errorf("query.kind %q is not supported", s.Query.Kind)
	}
	for _, e := range s.Engines {
		if e != EngineCollection && e != EngineSQLite {
			return fmt.Errorf("unknown engine %q", e)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertKeys:
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for keys", index)
		}
	case AssertCount, AssertAffected:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertRows:
		if a.Rows == nil {
			return fmt.Errorf("assertions[%d]: rows is required for rows", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	case AssertPortable:
		if a.Portable == nil {
			return fmt.Errorf("assertions[%d]: portable is required for portable", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// runsOn reports whether the scenario runs on engine.
func (s *Scenario) runsOn(engine string) bool {
	return len(s.Engines) == 0 || slices.Contains(s.Engines, engine)
}
