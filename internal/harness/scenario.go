package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: steps to run against a fresh
// store and assertions over the state they leave behind.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup establishes initial state. Every setup step must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the sequence under test.
	Flow []Step `yaml:"flow"`

	// Assertions run after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	Drive     string  `yaml:"drive,omitempty"`
	Item      string  `yaml:"item,omitempty"`
	Attribute string  `yaml:"attribute,omitempty"`
	Value     *string `yaml:"value,omitempty"`

	// Type is the fact type for insert and define, the item type for create.
	Type string `yaml:"type,omitempty"`

	// Attributes are string attributes written by create.
	Attributes map[string]string `yaml:"attributes,omitempty"`

	// Successor names the replacement item on delete.
	Successor string `yaml:"successor,omitempty"`

	FactID    string `yaml:"fact_id,omitempty"`
	Timestamp string `yaml:"timestamp,omitempty"`

	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`
	After  string   `yaml:"after,omitempty"`
	Before string   `yaml:"before,omitempty"`
	Live   bool     `yaml:"live,omitempty"`

	// From and Relationship on create add an incoming reference.
	From         string `yaml:"from,omitempty"`
	To           string `yaml:"to,omitempty"`
	Relationship string `yaml:"relationship,omitempty"`

	// As binds the first id returned by create or relate.
	As string `yaml:"as,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect constrains a flow step's outcome. Unset fields are not checked.
type Expect struct {
	// Error is the expected outcome class, e.g. "not_found".
	Error string `yaml:"error,omitempty"`

	Count  *int     `yaml:"count,omitempty"`
	Values []string `yaml:"values,omitempty"`
	IDs    []string `yaml:"ids,omitempty"`
}

// Assertion checks the final state of the store.
type Assertion struct {
	Type string `yaml:"type"`

	Item      string `yaml:"item,omitempty"`
	Attribute string `yaml:"attribute,omitempty"`
	Value     string `yaml:"value,omitempty"`

	Drive string `yaml:"drive,omitempty"`
	Count int    `yaml:"count,omitempty"`

	From         string `yaml:"from,omitempty"`
	To           string `yaml:"to,omitempty"`
	Relationship string `yaml:"relationship,omitempty"`
}

// Step operations.
const (
	OpInsert  = "insert"
	OpDefine  = "define"
	OpCreate  = "create"
	OpRemove  = "remove"
	OpRestore = "restore"
	OpDelete  = "delete"
	OpRelate  = "relate"
	OpFetch   = "fetch"
	OpRange   = "range"
	OpDates   = "dates"
	OpRecent  = "recent"
	OpFindRel = "find_rel"
)

// Assertion types.
const (
	AssertLiveValue = "live_value"
	AssertNoFact    = "no_fact"
	AssertFactCount = "fact_count"
	AssertRelated   = "related"
)

var knownOps = map[string]bool{
	OpInsert: true, OpDefine: true, OpCreate: true, OpRemove: true, OpRestore: true, OpDelete: true, OpRelate: true,
	OpFetch: true, OpRange: true, OpDates: true, OpRecent: true, OpFindRel: true,
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so that typos fail loudly.
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
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is only allowed in flow", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if !knownOps[step.Op] {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	switch step.Op {
	case OpRange:
		if step.Min == nil || step.Max == nil {
			return fmt.Errorf("range requires min and max")
		}
	case OpRecent, OpRemove, OpRestore:
		if step.Item == "" || step.Attribute == "" {
			return fmt.Errorf("%s requires item and attribute", step.Op)
		}
	case OpDelete:
		if step.Item == "" {
			return fmt.Errorf("delete requires item")
		}
	}
	if len(step.Attributes) > 0 && step.Op != OpCreate {
		return fmt.Errorf("attributes are only allowed on create")
	}
	if step.As != "" && step.Op != OpCreate && step.Op != OpRelate {
		return fmt.Errorf("as is only allowed on create and relate")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertLiveValue, AssertNoFact:
		if a.Item == "" || a.Attribute == "" {
			return fmt.Errorf("%s requires item and attribute", a.Type)
		}
	case AssertFactCount:
		if a.Drive == "" {
			return fmt.Errorf("fact_count requires drive")
		}
	case AssertRelated:
		if a.From == "" && a.To == "" && a.Relationship == "" {
			return fmt.Errorf("related requires from, to or relationship")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
