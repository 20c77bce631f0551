package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberfall/async"
)

func newScenarioCmd(a *app) *cobra.Command {
	var (
		tick  time.Duration
		short time.Duration
		long  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Spawn three tasks, await the slowest, then abort the endless one",
		Long: "Task A sleeps in an endless loop, task B sleeps --short then returns,\n" +
			"task C sleeps --long then returns. C is awaited first; by then B has\n" +
			"finished and A has not, so A is aborted and awaited last.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, stop, err := a.startRuntime(ctx)
			if err != nil {
				return err
			}

			h := async.Spawn(rt, func(ctx context.Context) scenarioReport {
				return runScenario(ctx, rt, tick, short, long)
			}, async.WithName("scenario"))

			report, err := h.Await(ctx)
			if err == nil {
				report.print(cmd.OutOrStdout())
				err = report.err
			}
			return errors.Join(err, stop())
		},
	}

	cmd.Flags().DurationVar(&tick, "tick", 100*time.Millisecond, "Sleep of each iteration of task A")
	cmd.Flags().DurationVar(&short, "short", 100*time.Millisecond, "Sleep of task B")
	cmd.Flags().DurationVar(&long, "long", 500*time.Millisecond, "Sleep of task C")

	return cmd
}

type scenarioReport struct {
	c         string
	elapsed   time.Duration
	bFinished bool
	b         string
	aFinished bool
	aErr      error
	err       error
}

func runScenario(ctx context.Context, rt async.Runtime, tick, short, long time.Duration) scenarioReport {
	var r scenarioReport

	start := rt.Now()

	a := async.Go(rt, func(ctx context.Context) {
		for {
			_ = async.Sleep(ctx, tick)
		}
	}, async.WithName("A"))

	sleeper := func(d time.Duration) func(ctx context.Context) string {
		return func(ctx context.Context) string {
			_ = async.Sleep(ctx, d)
			return "X"
		}
	}
	b := async.Spawn(rt, sleeper(short), async.WithName("B"))
	c := async.Spawn(rt, sleeper(long), async.WithName("C"))

	if r.c, r.err = c.Await(ctx); r.err != nil {
		a.Abort()
		return r
	}
	r.elapsed = rt.Now().DurationSince(start)

	r.bFinished = b.IsFinished()
	if r.b, r.err = b.Poll(); r.err != nil {
		a.Abort()
		return r
	}

	r.aFinished = a.IsFinished()
	a.Abort()
	_, r.aErr = a.Await(ctx)
	return r
}

func (r scenarioReport) print(w io.Writer) {
	fmt.Fprintf(w, "C returned %q after %v\n", r.c, r.elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "B finished: %t, polled %q\n", r.bFinished, r.b)
	fmt.Fprintf(w, "A finished: %t\n", r.aFinished)
	fmt.Fprintf(w, "A after abort: %v\n", r.aErr)
}
