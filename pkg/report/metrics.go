package report

import (
	"errors"
	"time"

	"github.com/srodi/itop/pkg/types"
)

// ErrDegenerateInterval is returned when two samples of a process are not
// separated by a positive wall-clock interval.
var ErrDegenerateInterval = errors.New("degenerate sampling interval")

// Calculate derives a ProcessRecord from the current snapshot and, when the
// process was seen last cycle, its previous snapshot. CPU% is the CPU time
// consumed over the wall-clock interval, clamped to [0, cores*100]. A process
// with no previous snapshot reports 0% for this cycle.
func Calculate(cur types.RawProcessSnapshot, prev *types.RawProcessSnapshot, cores int, totalMem uint64) (types.ProcessRecord, error) {
	rec := types.ProcessRecord{
		Identity:  cur.Identity,
		ParentPID: cur.ParentPID,
		Name:      cur.Name,
		RSSBytes:  cur.RSSBytes,
	}
	if totalMem > 0 {
		rec.MemoryPercent = 100 * float64(cur.RSSBytes) / float64(totalMem)
	}
	if prev == nil {
		return rec, nil
	}

	elapsed := cur.SampledAt.Sub(prev.SampledAt)
	if elapsed <= 0 {
		return types.ProcessRecord{}, ErrDegenerateInterval
	}
	rec.CPUPercent = cpuPercent(cur.CPUTime-prev.CPUTime, elapsed, cores)
	return rec, nil
}

func cpuPercent(used, elapsed time.Duration, cores int) float64 {
	if cores < 1 {
		cores = 1
	}
	pct := 100 * used.Seconds() / elapsed.Seconds()
	ceiling := float64(cores) * 100
	switch {
	case pct < 0:
		return 0
	case pct > ceiling:
		return ceiling
	}
	return pct
}

// BuildResult is one cycle of calculated records.
type BuildResult struct {
	Records    []types.ProcessRecord // encounter order of the snapshots
	ByIdentity map[types.ProcessIdentity]types.ProcessRecord
	Degenerate int // identities whose previous record was carried over
}

// BuildRecords calculates a record for every current snapshot. On a
// degenerate interval the previous cycle's record for that identity is reused
// unchanged; a process without one falls back to a cold-start record.
func BuildRecords(
	current []types.RawProcessSnapshot,
	prevSnaps map[types.ProcessIdentity]types.RawProcessSnapshot,
	prevRecords map[types.ProcessIdentity]types.ProcessRecord,
	cores int,
	totalMem uint64,
) BuildResult {
	res := BuildResult{
		Records:    make([]types.ProcessRecord, 0, len(current)),
		ByIdentity: make(map[types.ProcessIdentity]types.ProcessRecord, len(current)),
	}
	for _, snap := range current {
		if _, dup := res.ByIdentity[snap.Identity]; dup {
			continue
		}
		var prev *types.RawProcessSnapshot
		if p, ok := prevSnaps[snap.Identity]; ok {
			prev = &p
		}

		rec, err := Calculate(snap, prev, cores, totalMem)
		if errors.Is(err, ErrDegenerateInterval) {
			res.Degenerate++
			if old, ok := prevRecords[snap.Identity]; ok {
				rec = old
			} else {
				rec, _ = Calculate(snap, nil, cores, totalMem)
			}
		}
		res.Records = append(res.Records, rec)
		res.ByIdentity[snap.Identity] = rec
	}
	return res
}
