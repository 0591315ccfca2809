package cpu

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procReadFile and listPIDs allow tests to stub /proc.
var (
	procReadFile = os.ReadFile
	listPIDs     = procPIDs
)

// procPIDs lists the numeric /proc entries, one per live process.
func procPIDs() ([]uint32, error) {
	dirents, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	pids := make([]uint32, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		if pid, err := strconv.ParseUint(d.Name(), 10, 32); err == nil && pid > 0 {
			pids = append(pids, uint32(pid))
		}
	}
	return pids, nil
}

// cStr trims a fixed-size kernel char array at its first NUL.
func cStr(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return string(b)
}

func procPath(pid uint32, file string) string {
	return filepath.Join("/proc", strconv.FormatUint(uint64(pid), 10), file)
}

// commForPID resolves a task name, remembering every answer (including the
// pid-N fallback) in cache for the life of one sample.
func commForPID(pid uint32, cache map[uint32]string) string {
	if pid == 0 {
		return "idle"
	}
	if name, ok := cache[pid]; ok {
		return name
	}
	name := fmt.Sprintf("pid-%d", pid)
	if data, err := procReadFile(procPath(pid, "comm")); err == nil {
		if comm := strings.TrimSpace(string(data)); comm != "" {
			name = comm
		}
	}
	cache[pid] = name
	return name
}

// procStat holds the /proc/PID/stat fields the source needs.
type procStat struct {
	PPID      int32
	StartTick int64 // clock ticks after boot
}

// statForPID parses /proc/PID/stat. The comm field may contain spaces and
// parentheses, so fields are counted from the last ')'.
func statForPID(pid uint32) (procStat, error) {
	data, err := procReadFile(procPath(pid, "stat"))
	if err != nil {
		return procStat{}, err
	}
	line := string(data)
	r := strings.LastIndexByte(line, ')')
	if r < 0 {
		return procStat{}, fmt.Errorf("malformed stat for pid %d", pid)
	}
	// fields[0] is state (field 3), so field N lives at fields[N-3].
	fields := strings.Fields(line[r+1:])
	if len(fields) < 20 {
		return procStat{}, fmt.Errorf("short stat for pid %d: %d fields", pid, len(fields))
	}
	ppid, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return procStat{}, fmt.Errorf("parsing ppid for pid %d: %w", pid, err)
	}
	start, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil {
		return procStat{}, fmt.Errorf("parsing starttime for pid %d: %w", pid, err)
	}
	return procStat{PPID: int32(ppid), StartTick: start}, nil
}
