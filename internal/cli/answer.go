package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/coursesync/internal/orchestrator"
)

// AnswerOptions holds flags for the answer command.
type AnswerOptions struct {
	*RootOptions
	Reveal bool
}

// AnswerStep is one submitted option and what came of it.
type AnswerStep struct {
	Selected int                  `json:"selected"`
	Outcome  orchestrator.Outcome `json:"outcome"`
}

// AnswerResult is the payload of the answer command.
type AnswerResult struct {
	Chapter  string       `json:"chapter"`
	Question string       `json:"question"`
	Steps    []AnswerStep `json:"steps"`
	Revealed *int         `json:"revealed,omitempty"`
}

// NewAnswerCommand creates the answer command.
func NewAnswerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnswerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "answer <chapter-id> <question-id> <option>...",
		Short: "Submit one or more answers to a question",
		Long: `Submit answers to a question within one session, in order, stopping at the
first correct one.

After the second wrong answer a reveal is offered. With --reveal the correct
option is shown and no further answers are submitted; otherwise the session
retries and the remaining options are tried.

Example:
  coursesync answer ch1 q1 2
  coursesync answer ch1 q1 0 1 --reveal`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Reveal, "reveal", false, "accept the reveal when it is offered")

	return cmd
}

func runAnswer(opts *AnswerOptions, args []string, cmd *cobra.Command) error {
	selections := make([]int, 0, len(args)-2)
	for _, raw := range args[2:] {
		n, err := strconv.Atoi(raw)
		if err != nil {
			out := newFormatter(opts.RootOptions, cmd)
			return report(out, ExitCommandError, ErrCodeInvalid, "invalid option index", err)
		}
		selections = append(selections, n)
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res := AnswerResult{Chapter: args[0], Question: args[1]}
	a.orch.Open(a.user, res.Question)

	for _, sel := range selections {
		outcome, err := a.orch.SubmitAnswer(cmd.Context(), orchestrator.Answer{
			UserID:     a.user,
			ChapterID:  res.Chapter,
			QuestionID: res.Question,
			Selected:   sel,
		})
		if err != nil {
			return a.fail("failed to submit answer", err)
		}
		res.Steps = append(res.Steps, AnswerStep{Selected: sel, Outcome: outcome})
		a.out.Verbosef("submitted %d: %s (queued %v)", sel, outcome.Kind, outcome.Scheduled)

		if outcome.Kind == orchestrator.Correct {
			break
		}
		if outcome.RevealOffered {
			if opts.Reveal {
				idx, err := a.orch.Reveal(a.user, res.Question)
				if err != nil {
					return a.fail("failed to reveal answer", err)
				}
				res.Revealed = &idx
				break
			}
			if err := a.orch.Retry(a.user, res.Question); err != nil {
				return a.fail("failed to retry", err)
			}
		}
	}

	return a.out.Success(res, func(w io.Writer) { renderAnswer(w, res) })
}

func renderAnswer(w io.Writer, res AnswerResult) {
	for _, step := range res.Steps {
		switch step.Outcome.Kind {
		case orchestrator.Correct:
			fmt.Fprintf(w, "✓ %d is correct\n", step.Selected)
			if next := step.Outcome.Next; next != nil {
				fmt.Fprintf(w, "Next: %s/%s\n", next.ChapterID, next.QuestionID)
			} else {
				fmt.Fprintln(w, "Course complete")
			}
		default:
			fmt.Fprintf(w, "✗ %d is wrong (attempt %d)\n", step.Selected, step.Outcome.Attempt)
			if step.Outcome.RevealOffered {
				fmt.Fprintln(w, "Reveal offered")
			}
		}
	}
	if res.Revealed != nil {
		fmt.Fprintf(w, "Correct option: %d\n", *res.Revealed)
	}
}
