package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/coursesync/internal/orchestrator"
	"github.com/roach88/coursesync/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval time.Duration
	Count    int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload progress on an interval",
		Long: `Poll the store and print the learner's progress after every refresh
until interrupted, or until --count refreshes have been printed.

Example:
  coursesync watch --interval 10s
  coursesync watch --count 1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "refresh interval (default from config)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many refreshes (0 = until interrupted)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	interval := a.cfg.Watch.Interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var (
		printed atomic.Int32
		lastErr atomic.Value
	)
	w := watch.New(a.orch, a.user,
		watch.WithInterval(interval),
		watch.WithLogger(a.logger),
		watch.OnView(func(v orchestrator.View) {
			res := StatsResult{User: v.UserID, Summary: v.Summary, WrongAttempts: v.WrongAttempts}
			_ = a.out.Success(res, func(out io.Writer) {
				fmt.Fprintf(out, "[%s] %d/%d completed (%d%%), %d wrong attempts\n",
					time.Now().Format(time.TimeOnly), res.Summary.Completed, res.Summary.Total, res.Summary.Percent, res.WrongAttempts)
			})
			if opts.Count > 0 && int(printed.Add(1)) >= opts.Count {
				cancel()
			}
		}),
		watch.OnError(func(err error) {
			lastErr.Store(err)
		}),
	)
	if err := w.Start(); err != nil {
		return a.fail("failed to start watcher", err)
	}
	<-ctx.Done()
	w.Stop()

	if printed.Load() == 0 {
		if err, ok := lastErr.Load().(error); ok {
			return a.fail("no refresh succeeded", err)
		}
	}
	return nil
}
