package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/coursesync/internal/docstore/memstore"
)

// Scenario is a scripted learner session run against an in-memory store.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// User is the learner id. Defaults to DefaultUser.
	User string `yaml:"user,omitempty"`

	// ChapterWrites toggles denormalized chapter state writes. Defaults to true.
	ChapterWrites *bool `yaml:"chapter_writes,omitempty"`

	// Chapters are seeded as chapter documents before the flow.
	Chapters []map[string]any `yaml:"chapters"`

	// Progress, if set, is seeded as the user's progress document.
	Progress map[string]any `yaml:"progress,omitempty"`

	// Flow is the ordered list of steps.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultUser is the learner id used when a scenario names none.
const DefaultUser = "learner"

// Step kinds.
const (
	StepLoad   = "load"
	StepAnswer = "answer"
	StepReveal = "reveal"
	StepRetry  = "retry"
	StepOpen   = "open"
	StepFail   = "fail"
)

// FlowStep is one learner action, or a fault injected into the store.
type FlowStep struct {
	Step     string `yaml:"step"`
	Chapter  string `yaml:"chapter,omitempty"`
	Question string `yaml:"question,omitempty"`
	Selected *int   `yaml:"selected,omitempty"`

	// Op and Count configure a fail step: the next Count calls of store
	// operation Op return a transport error.
	Op    string `yaml:"op,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Expect, if set, is checked against the step's completion.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected completion of a step.
type ExpectClause struct {
	// Case is the expected output case: ok, correct, wrong or error.
	Case string `yaml:"case"`

	// Result is a subset match against the completion's result fields.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type selects the check: trace_contains, trace_order, trace_count,
	// question_state or final_state.
	Type string `yaml:"type"`

	// Action is a step kind (trace_contains) or a step kind or write
	// name (trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are matched as a subset of an invocation's args (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Actions is the expected order of step kinds or write names (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Chapter, Question and State describe a derived question state (question_state).
	Chapter  string `yaml:"chapter,omitempty"`
	Question string `yaml:"question,omitempty"`
	State    string `yaml:"state,omitempty"`

	// Collection and ID locate a stored document (final_state).
	Collection string `yaml:"collection,omitempty"`
	ID         string `yaml:"id,omitempty"`

	// Expect is a subset match against the stored document (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertQuestionState = "question_state"
	AssertFinalState    = "final_state"
)

var failOps = []string{memstore.OpFetchAll, memstore.OpFetch, memstore.OpSet, memstore.OpInsert, memstore.OpReplace, memstore.OpMerge}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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
	if len(s.Chapters) == 0 {
		return fmt.Errorf("chapters list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *FlowStep) error {
	switch st.Step {
	case StepLoad:
	case StepAnswer:
		if st.Chapter == "" || st.Question == "" {
			return fmt.Errorf("flow[%d]: chapter and question are required for answer", index)
		}
		if st.Selected == nil {
			return fmt.Errorf("flow[%d]: selected is required for answer", index)
		}
	case StepReveal, StepRetry, StepOpen:
		if st.Question == "" {
			return fmt.Errorf("flow[%d]: question is required for %s", index, st.Step)
		}
	case StepFail:
		if !slices.Contains(failOps, st.Op) {
			return fmt.Errorf("flow[%d]: op must be one of %v, got %q", index, failOps, st.Op)
		}
		if st.Count < 1 {
			return fmt.Errorf("flow[%d]: count must be positive for fail", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: step is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown step %q", index, st.Step)
	}
	if st.Expect != nil && st.Expect.Case == "" {
		return fmt.Errorf("flow[%d].expect: case is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertQuestionState:
		if a.Chapter == "" || a.Question == "" || a.State == "" {
			return fmt.Errorf("assertions[%d]: chapter, question and state are required for question_state", index)
		}
	case AssertFinalState:
		if a.Collection == "" || a.ID == "" {
			return fmt.Errorf("assertions[%d]: collection and id are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
