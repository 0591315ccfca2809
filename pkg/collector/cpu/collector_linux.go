//go:build linux
// +build linux

package cpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"golang.org/x/sys/unix"

	"github.com/srodi/itop/pkg/collector"
	"github.com/srodi/itop/pkg/collector/memory"
	"github.com/srodi/itop/pkg/types"
)

const (
	programName  = "handle_sched_switch"
	statsMapName = "pid_stats"
)

var errNoObject = errors.New("bpf source needs a compiled object path (bpf_object)")

// Source owns a sched_switch program that accumulates on-CPU nanoseconds per
// PID. The map is never reset, so each entry is a cumulative counter since
// attach and successive samples can be diffed like any other source.
type Source struct {
	coll   *ebpf.Collection
	stats  *ebpf.Map
	tp     link.Link
	logger *slog.Logger
}

// NewSource loads the compiled object at objectPath and attaches its
// handle_sched_switch program to sched/sched_switch.
func NewSource(objectPath string, logger *slog.Logger) (*Source, error) {
	if objectPath == "" {
		return nil, errNoObject
	}
	if logger == nil {
		logger = slog.Default()
	}
	// Raise rlimit for locked memory to allow eBPF programs to load.
	if err := unix.Setrlimit(unix.RLIMIT_MEMLOCK, &unix.Rlimit{
		Cur: unix.RLIM_INFINITY,
		Max: unix.RLIM_INFINITY,
	}); err != nil {
		return nil, fmt.Errorf("raising rlimit memlock: %w", err)
	}

	collSpec, err := ebpf.LoadCollectionSpec(objectPath)
	if err != nil {
		return nil, fmt.Errorf("reading bpf object %s: %w", objectPath, err)
	}
	coll, err := ebpf.NewCollection(collSpec)
	if err != nil {
		return nil, fmt.Errorf("loading bpf objects: %w", err)
	}

	prog, ok := coll.Programs[programName]
	if !ok {
		coll.Close()
		return nil, fmt.Errorf("bpf object has no program %q", programName)
	}
	stats, ok := coll.Maps[statsMapName]
	if !ok {
		coll.Close()
		return nil, fmt.Errorf("bpf object has no map %q", statsMapName)
	}

	tp, err := link.Tracepoint("sched", "sched_switch", prog, nil)
	if err != nil {
		coll.Close()
		return nil, fmt.Errorf("attaching tracepoint: %w", err)
	}

	return &Source{coll: coll, stats: stats, tp: tp, logger: logger}, nil
}

// Close detaches the tracepoint and releases the BPF resources.
func (s *Source) Close() error {
	var err error
	if s.tp != nil {
		err = errors.Join(err, s.tp.Close())
	}
	if s.coll != nil {
		s.coll.Close()
	}
	return err
}

// Sample lists every process in /proc with the on-CPU time the program has
// accounted to it. Map entries for processes that are gone are deleted so
// the map never fills up with dead PIDs.
func (s *Source) Sample(ctx context.Context) ([]types.RawProcessSnapshot, error) {
	sampledAt := now()
	live, err := listPIDs()
	if err != nil {
		return nil, collector.Unavailable(fmt.Errorf("listing /proc: %w", err))
	}

	entries := make(map[uint32]pidStat)
	iter := s.stats.Iterate()
	var pid uint32
	var stat pidStat
	for iter.Next(&pid, &stat) {
		entries[pid] = stat
	}
	if err := iter.Err(); err != nil {
		return nil, collector.Unavailable(fmt.Errorf("iterating cpu stats: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, collector.Unavailable(err)
	}

	snaps, stale := buildSnapshots(live, entries, sampledAt, s.logger)
	for _, pid := range stale {
		if err := s.stats.Delete(&pid); err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
			s.logger.Debug("evicting stale pid", "pid", pid, "error", err)
		}
	}
	return snaps, nil
}

// Host describes the machine from /proc. Load and CPU figures are not
// accounted by the BPF program and stay zero.
func (s *Source) Host(ctx context.Context) (types.HostStat, error) {
	var stat types.HostStat
	stat.Hostname, _ = os.Hostname()
	total, err := memory.TotalMemoryBytes()
	if err != nil {
		return stat, err
	}
	stat.TotalMemory = total
	return stat, nil
}
