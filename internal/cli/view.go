package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/coursesync/internal/curriculum"
	"github.com/roach88/coursesync/internal/orchestrator"
)

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show chapters with each question's lock state",
		Long: `Load the curriculum and the learner's progress and print every chapter
with its questions marked completed, unlocked or locked.

A learner without a progress record gets one starting at the first question.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.orch.LoadView(cmd.Context(), a.user)
			if err != nil {
				return a.fail("failed to load view", err)
			}
			return a.out.Success(v, func(w io.Writer) { renderView(w, v) })
		},
	}
}

// ResumeResult is the payload of the resume command.
type ResumeResult struct {
	Complete bool                 `json:"complete"`
	Chapter  string               `json:"chapter,omitempty"`
	Question *curriculum.Question `json:"question,omitempty"`
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "resume",
		Short:         "Show the question the learner should continue with",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.orch.LoadView(cmd.Context(), a.user)
			if err != nil {
				return a.fail("failed to load view", err)
			}

			res := ResumeResult{Complete: true}
			if v.Resume != nil {
				if _, q, ok := curriculum.Find(v.Chapters, v.Resume.ChapterID, v.Resume.QuestionID); ok {
					res = ResumeResult{Chapter: v.Resume.ChapterID, Question: &q}
				}
			}
			return a.out.Success(res, func(w io.Writer) { renderResume(w, res) })
		},
	}
}

// StatsResult is the payload of the stats command.
type StatsResult struct {
	User          string             `json:"user"`
	Summary       curriculum.Summary `json:"summary"`
	WrongAttempts int                `json:"wrongAttempts"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show completion counts and wrong attempts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.orch.LoadView(cmd.Context(), a.user)
			if err != nil {
				return a.fail("failed to load view", err)
			}
			res := StatsResult{User: a.user, Summary: v.Summary, WrongAttempts: v.WrongAttempts}
			return a.out.Success(res, func(w io.Writer) { renderStats(w, res) })
		},
	}
}

func stateMark(s curriculum.QuestionState) string {
	switch s {
	case curriculum.Completed:
		return "✓"
	case curriculum.Unlocked:
		return "○"
	default:
		return "·"
	}
}

func renderView(w io.Writer, v orchestrator.View) {
	fmt.Fprintf(w, "Progress for %s: %d/%d questions (%d%%)\n", v.UserID, v.Summary.Completed, v.Summary.Total, v.Summary.Percent)
	for i, ch := range v.Chapters {
		cs := v.Summary.Chapters[i]
		fmt.Fprintf(w, "\n%s [%s] %d/%d\n", ch.Title, ch.ID, cs.Completed, cs.Total)
		for _, q := range ch.Questions {
			fmt.Fprintf(w, "  %s %-8s %s\n", stateMark(q.State), q.ID, q.Title)
		}
	}
	if v.Resume != nil {
		fmt.Fprintf(w, "\nResume at %s/%s\n", v.Resume.ChapterID, v.Resume.QuestionID)
	}
}

func renderResume(w io.Writer, res ResumeResult) {
	if res.Complete {
		fmt.Fprintln(w, "✓ Course complete")
		return
	}
	q := res.Question
	fmt.Fprintf(w, "%s [%s/%s]\n%s\n", q.Title, res.Chapter, q.ID, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", i, opt)
	}
}

func renderStats(w io.Writer, res StatsResult) {
	fmt.Fprintf(w, "User:           %s\n", res.User)
	fmt.Fprintf(w, "Completed:      %d/%d (%d%%)\n", res.Summary.Completed, res.Summary.Total, res.Summary.Percent)
	fmt.Fprintf(w, "Wrong attempts: %d\n", res.WrongAttempts)
	for _, cs := range res.Summary.Chapters {
		fmt.Fprintf(w, "  %-20s %d/%d (%d%%)\n", cs.Title, cs.Completed, cs.Total, cs.Percent)
	}
}
