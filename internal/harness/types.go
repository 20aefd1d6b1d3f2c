package harness

import (
	"github.com/roach88/coursesync/internal/orchestrator"
)

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
	EventWrite      = "write"
)

// TraceEvent is one entry in a scenario trace: a flow step being invoked,
// its completion, or a queued write finishing.
type TraceEvent struct {
	Type       string         `json:"type"`
	Action     string         `json:"action,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	OutputCase string         `json:"output_case,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Seq        int            `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds steps, their completions and settled writes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Final is the view loaded after the flow finished. Nil if it could not be loaded.
	Final *orchestrator.View `json:"final,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

// AddInvocation appends a flow step to the trace.
func (r *Result) AddInvocation(action string, args map[string]any) {
	r.add(TraceEvent{Type: EventInvocation, Action: action, Args: args})
}

// AddCompletion appends a flow step's outcome to the trace.
func (r *Result) AddCompletion(action, outputCase string, result map[string]any) {
	r.add(TraceEvent{Type: EventCompletion, Action: action, OutputCase: outputCase, Result: result})
}

// AddWrite appends a settled queued write to the trace.
func (r *Result) AddWrite(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.add(TraceEvent{Type: EventWrite, Action: name, OutputCase: outcome})
}
