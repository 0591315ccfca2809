// Package memory reads resident memory figures from /proc.
package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procReadFile and pageSize allow tests to stub /proc.
var (
	procReadFile = os.ReadFile
	pageSize     = os.Getpagesize
)

var errNoMemTotal = errors.New("MemTotal not found in /proc/meminfo")

// residentPages reads the second statm column, counted in pages.
func residentPages(pid int) (uint64, error) {
	data, err := procReadFile(filepath.Join("/proc", strconv.Itoa(pid), "statm"))
	if err != nil {
		return 0, err
	}
	_, rest, _ := strings.Cut(strings.TrimSpace(string(data)), " ")
	resident, _, _ := strings.Cut(rest, " ")
	pages, err := strconv.ParseUint(resident, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("statm for pid %d: %w", pid, err)
	}
	return pages, nil
}

// RSSBytesForPIDs returns a PID->RSS map for the provided set. PIDs that
// cannot be read are left out, so exited processes simply disappear.
func RSSBytesForPIDs(pids []int) map[int]uint64 {
	page := uint64(pageSize())
	out := make(map[int]uint64, len(pids))
	for _, pid := range pids {
		if pid <= 0 {
			continue
		}
		if _, dup := out[pid]; dup {
			continue
		}
		if pages, err := residentPages(pid); err == nil {
			out[pid] = pages * page
		}
	}
	return out
}

// TotalMemoryBytes returns MemTotal from /proc/meminfo in bytes.
// TODO: honour the cgroup memory.max limit when running inside a container.
func TotalMemoryBytes() (uint64, error) {
	data, err := procReadFile("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || key != "MemTotal" {
			continue
		}
		kb, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(value), " kB"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("MemTotal: %w", err)
		}
		return kb << 10, nil
	}
	return 0, errNoMemTotal
}
