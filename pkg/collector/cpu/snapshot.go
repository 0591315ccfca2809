package cpu

import (
	"log/slog"
	"sort"
	"time"

	"github.com/srodi/itop/pkg/collector/memory"
	"github.com/srodi/itop/pkg/types"
)

// rssBytesForPIDs allows tests to stub RSS lookups that normally hit /proc.
var rssBytesForPIDs = memory.RSSBytesForPIDs

var now = time.Now

// pidStat mirrors the value layout of the pid_stats map.
type pidStat struct {
	CPUTimeNS uint64
	Comm      [16]byte
	Cgroup    [64]byte
}

// buildSnapshots lists every live PID, joined with its map entry when the
// program has seen it run; an idle process reports zero CPU time. Output is
// in PID order. stale holds the map keys with no live process behind them.
func buildSnapshots(live []uint32, entries map[uint32]pidStat, sampledAt time.Time, logger *slog.Logger) (snaps []types.RawProcessSnapshot, stale []uint32) {
	pids := make([]uint32, 0, len(live))
	seen := make(map[uint32]struct{}, len(live))
	for _, pid := range live {
		if _, dup := seen[pid]; dup || pid == 0 {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	for pid := range entries {
		if _, ok := seen[pid]; !ok {
			stale = append(stale, pid)
		}
	}

	rssPIDs := make([]int, 0, len(pids))
	for _, pid := range pids {
		rssPIDs = append(rssPIDs, int(pid))
	}
	rss := rssBytesForPIDs(rssPIDs)

	cache := make(map[uint32]string)
	snaps = make([]types.RawProcessSnapshot, 0, len(pids))
	for _, pid := range pids {
		stat, tracked := entries[pid]
		ps, err := statForPID(pid)
		if err != nil {
			logger.Debug("dropping exited pid", "pid", pid, "error", err)
			if tracked {
				stale = append(stale, pid)
			}
			continue
		}
		name := cStr(stat.Comm[:])
		if name == "" {
			name = commForPID(pid, cache)
		}
		snaps = append(snaps, types.RawProcessSnapshot{
			Identity:  types.ProcessIdentity{PID: int32(pid), StartTime: ps.StartTick},
			ParentPID: ps.PPID,
			Name:      name,
			CPUTime:   time.Duration(stat.CPUTimeNS),
			RSSBytes:  rss[int(pid)],
			SampledAt: sampledAt,
		})
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	return snaps, stale
}
