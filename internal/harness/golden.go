package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a scenario result as stable text: the trace followed by
// the final derived question states and progress record.
func Snapshot(name string, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	buf.WriteString("trace:\n")
	for _, event := range result.Trace {
		fmt.Fprintf(&buf, "  %s\n", formatEvent(event))
	}

	if v := result.Final; v != nil {
		buf.WriteString("final:\n")
		for i, ch := range v.Chapters {
			cs := v.Summary.Chapters[i]
			fmt.Fprintf(&buf, "  %s %s %d/%d\n", ch.ID, ch.Title, cs.Completed, cs.Total)
			for _, q := range ch.Questions {
				fmt.Fprintf(&buf, "    %s %s\n", q.State, q.ID)
			}
		}
		p := v.Progress
		fmt.Fprintf(&buf, "progress: chapter=%s last=%s completed=%v wrong=%s\n",
			p.ChapterID, p.LastQuestionID, p.CompletedIDs(), formatCounts(p.WrongAttempts))
	}
	return []byte(buf.String())
}

// formatEvent renders one trace event on a single line.
func formatEvent(event TraceEvent) string {
	parts := []string{fmt.Sprintf("[%d]", event.Seq), event.Type, event.Action}
	if event.OutputCase != "" {
		parts = append(parts, event.OutputCase)
	}
	parts = append(parts, formatFields(event.Args)...)
	parts = append(parts, formatFields(event.Result)...)
	return strings.Join(parts, " ")
}

func formatFields(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return out
}

func formatCounts(m map[string]int) string {
	if len(m) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s:%d", k, m[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's snapshot against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
