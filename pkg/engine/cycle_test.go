package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/itop/pkg/report"
	"github.com/srodi/itop/pkg/selection"
	"github.com/srodi/itop/pkg/types"
)

var base = time.Unix(1700000000, 0)

func boolPtr(v bool) *bool { return &v }

var showAll = report.FilterConfig{HideKernel: boolPtr(false)}

func raw(pid int32, name string, cpu time.Duration, at time.Time) types.RawProcessSnapshot {
	return types.RawProcessSnapshot{
		Identity:  types.ProcessIdentity{PID: pid, StartTime: int64(pid)},
		ParentPID: 1,
		Name:      name,
		CPUTime:   cpu,
		RSSBytes:  uint64(pid) << 20,
		SampledAt: at,
	}
}

func ident(pid int32) types.ProcessIdentity {
	return types.ProcessIdentity{PID: pid, StartTime: int64(pid)}
}

func order(rows []types.ProcessRecord) []int32 {
	out := make([]int32, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Identity.PID)
	}
	return out
}

func params() Params {
	return Params{Key: types.DefaultSortKey, Filter: showAll, Cores: 1}
}

func TestAdvanceSelectedProcessDies(t *testing.T) {
	// cycle 1 establishes A, B, C with A busiest
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{
		raw(10, "A", 0, base),
		raw(20, "B", 0, base),
		raw(30, "C", 0, base),
	}, params())
	second := Advance(first.State, selection.None, []types.RawProcessSnapshot{
		raw(10, "A", 900*time.Millisecond, base.Add(time.Second)),
		raw(20, "B", 500*time.Millisecond, base.Add(time.Second)),
		raw(30, "C", 100*time.Millisecond, base.Add(time.Second)),
	}, params())
	require.Equal(t, []int32{10, 20, 30}, order(second.Sorted))

	// A is highlighted and exits
	third := Advance(second.State, selection.Of(ident(10)), []types.RawProcessSnapshot{
		raw(20, "B", time.Second, base.Add(2*time.Second)),
		raw(30, "C", 200*time.Millisecond, base.Add(2*time.Second)),
	}, params())

	assert.True(t, third.Migrated)
	assert.Equal(t, selection.Of(ident(20)), third.Selection)
	assert.Equal(t, []int32{20, 30}, order(third.State.Rendered))
}

func TestAdvanceEverythingDies(t *testing.T) {
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{
		raw(10, "A", 0, base), raw(20, "B", 0, base), raw(30, "C", 0, base),
	}, params())

	next := Advance(first.State, selection.Of(ident(20)), nil, params())
	assert.True(t, next.Selection.IsNone())
	assert.True(t, next.Migrated)
	assert.Empty(t, next.Sorted)
}

func TestAdvanceReorderKeepsSelection(t *testing.T) {
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{
		raw(10, "A", 0, base), raw(20, "B", 0, base),
	}, params())
	sel := selection.Of(ident(10))

	// B overtakes A: order flips, membership does not change
	next := Advance(first.State, sel, []types.RawProcessSnapshot{
		raw(10, "A", 10*time.Millisecond, base.Add(time.Second)),
		raw(20, "B", 800*time.Millisecond, base.Add(time.Second)),
	}, params())

	assert.Equal(t, []int32{20, 10}, order(next.Sorted))
	assert.False(t, next.Migrated)
	assert.Equal(t, sel, next.Selection)
}

func TestAdvanceDegenerateIntervalKeepsRecord(t *testing.T) {
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{raw(10, "X", 0, base)}, params())
	second := Advance(first.State, selection.None, []types.RawProcessSnapshot{
		raw(10, "X", 250*time.Millisecond, base.Add(time.Second)),
	}, params())
	before := second.State.Records[ident(10)]
	require.InDelta(t, 25.0, before.CPUPercent, 1e-9)

	// clock went backwards for cycle N
	third := Advance(second.State, selection.None, []types.RawProcessSnapshot{
		raw(10, "X", 900*time.Millisecond, base.Add(500*time.Millisecond)),
	}, params())

	assert.Equal(t, 1, third.Degenerate)
	assert.Equal(t, before, third.State.Records[ident(10)])
	require.Len(t, third.Sorted, 1)
	assert.Equal(t, before, third.Sorted[0])
}

func TestAdvanceFilteredSelectionMigrates(t *testing.T) {
	p := params()
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{
		raw(10, "api", 0, base), raw(20, "db", 0, base), raw(30, "cache", 0, base),
	}, p)

	p.Filter.NameFilter = "a" // hides db
	next := Advance(first.State, selection.Of(ident(20)), []types.RawProcessSnapshot{
		raw(10, "api", 0, base.Add(time.Second)),
		raw(20, "db", 0, base.Add(time.Second)),
		raw(30, "cache", 0, base.Add(time.Second)),
	}, p)

	assert.True(t, next.Migrated)
	assert.Equal(t, selection.Of(ident(30)), next.Selection)
	// hidden processes still keep their baseline for later cycles
	assert.Contains(t, next.State.Snapshots, ident(20))
	assert.Contains(t, next.State.Records, ident(20))
}

func TestAdvanceDoesNotMutatePreviousState(t *testing.T) {
	first := Advance(CycleState{}, selection.None, []types.RawProcessSnapshot{raw(10, "A", 0, base)}, params())
	snapshotCount := len(first.State.Snapshots)
	rendered := append([]types.ProcessRecord(nil), first.State.Rendered...)

	_ = Advance(first.State, selection.None, []types.RawProcessSnapshot{
		raw(20, "B", 0, base.Add(time.Second)),
		raw(30, "C", 0, base.Add(time.Second)),
	}, params())

	assert.Len(t, first.State.Snapshots, snapshotCount)
	assert.Equal(t, rendered, first.State.Rendered)
}
