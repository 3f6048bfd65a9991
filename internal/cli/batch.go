package cli

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// runBatch calls fn for each index in [0, n) with at most GOMAXPROCS calls in
// flight. The first failure cancels the rest and is returned with its index
// attached. A positive timeout bounds the whole batch.
func runBatch(cmd *cobra.Command, n int, timeout time.Duration, fn func(ctx context.Context, i int) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return batchStopped(err, i)
			}
			if err := fn(ctx, i); err != nil {
				return wireerr.Detail(err, "index", strconv.Itoa(i))
			}
			return nil
		})
	}
	return g.Wait()
}

func batchStopped(err error, i int) error {
	return wireerr.Detail(wireerr.Wrap(err, "batch stopped"), "index", strconv.Itoa(i))
}
