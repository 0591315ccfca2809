package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/itop/pkg/types"
)

func TestTimedPassesThroughResult(t *testing.T) {
	want := []types.RawProcessSnapshot{{Identity: types.ProcessIdentity{PID: 7}, Name: "init"}}
	src := Timed{
		Inner:  Func(func(ctx context.Context) ([]types.RawProcessSnapshot, error) { return want, nil }),
		Budget: time.Second,
	}

	got, err := src.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTimedTimesOutStalledSource(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	src := Timed{
		Inner: Func(func(ctx context.Context) ([]types.RawProcessSnapshot, error) {
			<-release
			return nil, nil
		}),
		Budget: 20 * time.Millisecond,
	}

	start := time.Now()
	got, err := src.Sample(context.Background())
	require.ErrorIs(t, err, ErrSampleTimeout)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTimedWrapsFailures(t *testing.T) {
	boom := errors.New("permission denied")
	src := Timed{
		Inner:  Func(func(ctx context.Context) ([]types.RawProcessSnapshot, error) { return nil, boom }),
		Budget: time.Second,
	}

	_, err := src.Sample(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestTimedWithoutBudgetCallsInline(t *testing.T) {
	calls := 0
	src := Timed{Inner: Func(func(ctx context.Context) ([]types.RawProcessSnapshot, error) {
		calls++
		return nil, nil
	})}

	_, err := src.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTimedHostUnsupported(t *testing.T) {
	src := Timed{Inner: Func(func(ctx context.Context) ([]types.RawProcessSnapshot, error) { return nil, nil })}
	_, err := src.Host(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestUnavailableKeepsNil(t *testing.T) {
	assert.NoError(t, Unavailable(nil))
	assert.Same(t, ErrSampleTimeout, Unavailable(ErrSampleTimeout))
}
