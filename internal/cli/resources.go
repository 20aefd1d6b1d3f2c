package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/coursesync/internal/curriculum"
)

// ResourcesOptions holds flags for the resources command.
type ResourcesOptions struct {
	*RootOptions
	Topic string
}

// NewResourcesCommand creates the resources command.
func NewResourcesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResourcesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "resources",
		Short:         "List reference topics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			topics, err := a.orch.Resources(cmd.Context())
			if err != nil {
				return a.fail("failed to load resources", err)
			}

			if opts.Topic == "" {
				return a.out.Success(topics, func(w io.Writer) { renderTopics(w, topics) })
			}
			for _, t := range topics {
				if t.ID == opts.Topic {
					return a.out.Success(t, func(w io.Writer) { renderTopic(w, t) })
				}
			}
			return report(a.out, ExitFailure, ErrCodeNotFound, "unknown topic", fmt.Errorf("no topic %q", opts.Topic))
		},
	}

	cmd.Flags().StringVar(&opts.Topic, "topic", "", "show the articles of one topic")

	return cmd
}

func renderTopics(w io.Writer, topics []curriculum.ResourceTopic) {
	if len(topics) == 0 {
		fmt.Fprintln(w, "No resources available.")
		return
	}
	for _, t := range topics {
		fmt.Fprintf(w, "%-12s %s - %s (%d articles)\n", t.ID, t.Title, t.Description, len(t.Content))
	}
}

func renderTopic(w io.Writer, t curriculum.ResourceTopic) {
	fmt.Fprintf(w, "%s\n%s\n", t.Title, t.Description)
	for _, item := range t.Content {
		fmt.Fprintf(w, "\n## %s\n%s\n", item.Title, item.Content)
	}
}
