// Package system samples the process table through gopsutil.
package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/srodi/itop/pkg/collector"
	"github.com/srodi/itop/pkg/types"
)

// procHandle is the subset of *process.Process a sample reads.
type procHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	TimesWithContext(ctx context.Context) (*cpu.TimesStat, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
	PpidWithContext(ctx context.Context) (int32, error)
	CreateTimeWithContext(ctx context.Context) (int64, error)
}

type entry struct {
	pid    int32
	handle procHandle
}

// listProcesses allows tests to replace the live process table.
var listProcesses = func(ctx context.Context) ([]entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entry, 0, len(procs))
	for _, p := range procs {
		out = append(out, entry{pid: p.Pid, handle: p})
	}
	return out, nil
}

var now = time.Now

// Source reads every process visible to the current user.
type Source struct {
	logger *slog.Logger
}

// NewSource returns a gopsutil backed source. A nil logger uses slog.Default.
func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{logger: logger}
}

// Sample enumerates the process table. A process that vanishes or refuses to
// be read mid-enumeration is dropped from the result.
func (s *Source) Sample(ctx context.Context) ([]types.RawProcessSnapshot, error) {
	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, collector.Unavailable(fmt.Errorf("listing processes: %w", err))
	}

	snaps := make([]types.RawProcessSnapshot, 0, len(procs))
	for _, e := range procs {
		if err := ctx.Err(); err != nil {
			return nil, collector.Unavailable(err)
		}
		snap, err := readProcess(ctx, e.pid, e.handle)
		if err != nil {
			s.logger.Debug("dropping unreadable process", "pid", e.pid, "error", err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func readProcess(ctx context.Context, pid int32, p procHandle) (types.RawProcessSnapshot, error) {
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return types.RawProcessSnapshot{}, fmt.Errorf("cpu times: %w", err)
	}
	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return types.RawProcessSnapshot{}, fmt.Errorf("memory info: %w", err)
	}
	sampledAt := now()

	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		name = fmt.Sprintf("pid-%d", pid)
	}
	// The start time is part of the identity, so a process whose start time
	// cannot be read is dropped for this cycle rather than listed under a
	// different identity.
	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return types.RawProcessSnapshot{}, fmt.Errorf("create time: %w", err)
	}
	ppid, _ := p.PpidWithContext(ctx)

	return types.RawProcessSnapshot{
		Identity:  types.ProcessIdentity{PID: pid, StartTime: created},
		ParentPID: ppid,
		Name:      name,
		CPUTime:   secondsToDuration(times.User + times.System),
		RSSBytes:  memInfo.RSS,
		SampledAt: sampledAt,
	}, nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// Host reports hostname, load, overall CPU and memory usage. Individual
// readings that fail are left zero.
func (s *Source) Host(ctx context.Context) (types.HostStat, error) {
	var stat types.HostStat
	if info, err := host.InfoWithContext(ctx); err == nil {
		stat.Hostname = info.Hostname
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stat.Load1, stat.Load5, stat.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	// interval 0 compares against the previous call, so the first reading is 0.
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stat.CPUPercent = pct[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stat, fmt.Errorf("reading virtual memory: %w", err)
	}
	stat.MemoryPercent = vm.UsedPercent
	stat.TotalMemory = vm.Total
	return stat, nil
}
