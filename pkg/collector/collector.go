// Package collector defines where process snapshots come from.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/srodi/itop/pkg/types"
)

// ErrSourceUnavailable marks a sample that failed as a whole. Callers keep the
// previous frame and retry on the next tick.
var ErrSourceUnavailable = errors.New("process source unavailable")

// ErrSampleTimeout is returned when a sample does not finish inside its budget.
var ErrSampleTimeout = fmt.Errorf("%w: sample timed out", ErrSourceUnavailable)

// Source enumerates every observable process. Each call is a full
// point-in-time listing; diffing between calls is the caller's job.
type Source interface {
	Sample(ctx context.Context) ([]types.RawProcessSnapshot, error)
}

// HostSampler is implemented by sources that can also describe the machine.
type HostSampler interface {
	Host(ctx context.Context) (types.HostStat, error)
}

// Unavailable wraps err so errors.Is(err, ErrSourceUnavailable) holds.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}

// Timed bounds every Sample call of an inner source by Budget.
type Timed struct {
	Inner  Source
	Budget time.Duration
}

type sampleResult struct {
	snaps []types.RawProcessSnapshot
	err   error
}

// Sample runs the inner source on its own goroutine so a stalled platform call
// cannot hold the caller past the budget. A late result is discarded.
func (t Timed) Sample(ctx context.Context) ([]types.RawProcessSnapshot, error) {
	if t.Budget <= 0 {
		snaps, err := t.Inner.Sample(ctx)
		return snaps, Unavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.Budget)
	defer cancel()

	done := make(chan sampleResult, 1)
	go func() {
		snaps, err := t.Inner.Sample(ctx)
		done <- sampleResult{snaps: snaps, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrSampleTimeout
		}
		return res.snaps, Unavailable(res.err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrSampleTimeout
		}
		return nil, Unavailable(ctx.Err())
	}
}

// Host forwards to the inner source when it can describe the host.
func (t Timed) Host(ctx context.Context) (types.HostStat, error) {
	if hs, ok := t.Inner.(HostSampler); ok {
		return hs.Host(ctx)
	}
	return types.HostStat{}, errors.ErrUnsupported
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context) ([]types.RawProcessSnapshot, error)

func (f Func) Sample(ctx context.Context) ([]types.RawProcessSnapshot, error) {
	return f(ctx)
}
