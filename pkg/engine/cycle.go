package engine

import (
	"github.com/srodi/itop/pkg/report"
	"github.com/srodi/itop/pkg/selection"
	"github.com/srodi/itop/pkg/types"
)

// CycleState is what one cycle hands to the next.
type CycleState struct {
	Snapshots map[types.ProcessIdentity]types.RawProcessSnapshot
	Records   map[types.ProcessIdentity]types.ProcessRecord
	Rendered  []types.ProcessRecord // order the user last saw
}

// Params are the per-cycle knobs of Advance.
type Params struct {
	Key      types.SortKey
	Filter   report.FilterConfig
	Cores    int
	TotalMem uint64
}

// Cycle is the outcome of Advance.
type Cycle struct {
	State      CycleState
	Selection  selection.State
	Visible    []types.ProcessRecord // filtered, unsorted
	Sorted     []types.ProcessRecord
	Migrated   bool
	Degenerate int
}

// Advance runs one sampling cycle: calculate metrics against the previous
// snapshots, filter, sort, then migrate the selection against the previously
// rendered order. prev is not modified; the returned state replaces it.
func Advance(prev CycleState, sel selection.State, snaps []types.RawProcessSnapshot, p Params) Cycle {
	built := report.BuildRecords(snaps, prev.Snapshots, prev.Records, p.Cores, p.TotalMem)
	visible := report.FilterRecords(built.Records, p.Filter)
	sorted := report.Sort(visible, p.Key)
	nextSel, migrated := selection.Migrate(prev.Rendered, sorted, sel)

	snapIndex := make(map[types.ProcessIdentity]types.RawProcessSnapshot, len(snaps))
	for _, s := range snaps {
		if _, dup := snapIndex[s.Identity]; !dup {
			snapIndex[s.Identity] = s
		}
	}

	return Cycle{
		State: CycleState{
			Snapshots: snapIndex,
			Records:   built.ByIdentity,
			Rendered:  sorted,
		},
		Selection:  nextSel,
		Visible:    visible,
		Sorted:     sorted,
		Migrated:   migrated,
		Degenerate: built.Degenerate,
	}
}
