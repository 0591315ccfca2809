package types

import (
	"fmt"
	"strings"
	"time"
)

// ProcessIdentity names one OS process instance. StartTime is the creation
// stamp reported by the source (ms since epoch for gopsutil, boot-relative
// clock ticks for /proc); it separates a reused PID from the process that held
// it before. 0 means the source could not read it.
type ProcessIdentity struct {
	PID       int32
	StartTime int64
}

func (id ProcessIdentity) String() string {
	if id.StartTime == 0 {
		return fmt.Sprintf("%d", id.PID)
	}
	return fmt.Sprintf("%d@%d", id.PID, id.StartTime)
}

// RawProcessSnapshot is what a source captured for one process at one instant.
type RawProcessSnapshot struct {
	Identity  ProcessIdentity
	ParentPID int32
	Name      string
	CPUTime   time.Duration // cumulative user+system
	RSSBytes  uint64
	SampledAt time.Time
}

// ProcessRecord is the per-cycle view of a process with its derived metrics.
type ProcessRecord struct {
	Identity      ProcessIdentity
	ParentPID     int32
	Name          string
	CPUPercent    float64
	RSSBytes      uint64
	MemoryPercent float64
}

// HostStat summarizes the machine for the header line and history charts.
type HostStat struct {
	Hostname      string
	Load1         float64
	Load5         float64
	Load15        float64
	CPUPercent    float64
	MemoryPercent float64
	TotalMemory   uint64
}

// SortColumn selects the value processes are ordered by.
type SortColumn int

const (
	SortByCPU SortColumn = iota
	SortByMemory
	SortByPID
	SortByName
)

var sortColumnNames = map[SortColumn]string{
	SortByCPU:    "cpu",
	SortByMemory: "mem",
	SortByPID:    "pid",
	SortByName:   "name",
}

func (c SortColumn) String() string {
	if name, ok := sortColumnNames[c]; ok {
		return name
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// ParseSortColumn accepts the short names used in flags and config files.
func ParseSortColumn(s string) (SortColumn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu", "cpu%":
		return SortByCPU, nil
	case "mem", "memory", "rss":
		return SortByMemory, nil
	case "pid":
		return SortByPID, nil
	case "name", "comm", "command":
		return SortByName, nil
	}
	return 0, fmt.Errorf("unknown sort key %q (want cpu, mem, pid or name)", s)
}

// Direction orders a SortColumn.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseDirection accepts asc/ascending and desc/descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q (want asc or desc)", s)
}

// SortKey is a column plus a direction.
type SortKey struct {
	Column    SortColumn
	Direction Direction
}

// DefaultSortKey puts the busiest processes first.
var DefaultSortKey = SortKey{Column: SortByCPU, Direction: Descending}

func (k SortKey) String() string {
	return k.Column.String() + " " + k.Direction.String()
}

// Reverse flips the direction and keeps the column.
func (k SortKey) Reverse() SortKey {
	if k.Direction == Ascending {
		k.Direction = Descending
	} else {
		k.Direction = Ascending
	}
	return k
}

// WithColumn switches to col. Picking the active column again flips the direction.
func (k SortKey) WithColumn(col SortColumn) SortKey {
	if k.Column == col {
		return k.Reverse()
	}
	k.Column = col
	k.Direction = defaultDirection(col)
	return k
}

func defaultDirection(col SortColumn) Direction {
	switch col {
	case SortByPID, SortByName:
		return Ascending
	default:
		return Descending
	}
}
