package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberfall/async"
)

func newTimersCmd(a *app) *cobra.Command {
	var delays []time.Duration

	cmd := &cobra.Command{
		Use:   "timers",
		Short: "Show timer wheel ordering and cancellation, then fire real timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			wheelDemo(out)

			rt, stop, err := a.startRuntime(cmd.Context())
			if err != nil {
				return err
			}
			order, err := fireAfter(cmd.Context(), rt, delays)
			if err == nil {
				fmt.Fprintf(out, "after funcs fired in order: %v\n", order)
			}
			return errors.Join(err, stop())
		},
	}

	cmd.Flags().DurationSliceVar(&delays, "after", []time.Duration{
		30 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
	}, "Delays of the real timers to fire")

	return cmd
}

// wheelDemo schedules two deadlines, cancels the earlier one and fires
// everything due 60ms later.
func wheelDemo(w io.Writer) {
	var wheel async.Wheel[string]
	now := async.Now()

	first := wheel.Schedule(now.Add(50*time.Millisecond), "first")
	second := wheel.Schedule(now.Add(10*time.Millisecond), "second")
	cancelled := wheel.Cancel(second)

	fmt.Fprintf(w, "scheduled keys %d and %d, cancelled %d: %t\n", first, second, second, cancelled)
	for _, t := range wheel.FireDue(now.Add(60 * time.Millisecond)) {
		fmt.Fprintf(w, "fired key %d (%s) at %v\n", t.Key, t.Value, t.Deadline.DurationSince(now))
	}
}

func fireAfter(ctx context.Context, rt async.Runtime, delays []time.Duration) ([]time.Duration, error) {
	var (
		mu    sync.Mutex
		order []time.Duration
	)

	handles := make([]*async.JoinHandle[struct{}], 0, len(delays))
	for _, d := range delays {
		handles = append(handles, async.AfterFunc(rt, d, func() {
			mu.Lock()
			order = append(order, d)
			mu.Unlock()
		}))
	}

	if _, err := async.WaitAll(ctx, handles...); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return order, nil
}
