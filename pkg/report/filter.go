package report

import (
	"strings"

	"github.com/srodi/itop/pkg/types"
)

// kthreaddPID is the parent of every Linux kernel thread.
const kthreaddPID = 2

// FilterConfig controls which processes appear in the list. A process that a
// filter hides is treated like one that exited.
type FilterConfig struct {
	HideKernel *bool // nil defaults to true so kernel threads stay hidden unless explicitly shown
	NameFilter string
}

func (cfg FilterConfig) hideKernelEnabled() bool {
	if cfg.HideKernel == nil {
		return true
	}
	return *cfg.HideKernel
}

// FilterRecords keeps the records that pass cfg, preserving order.
func FilterRecords(rows []types.ProcessRecord, cfg FilterConfig) []types.ProcessRecord {
	needle := strings.ToLower(strings.TrimSpace(cfg.NameFilter))
	filtered := make([]types.ProcessRecord, 0, len(rows))
	for _, row := range rows {
		if cfg.hideKernelEnabled() && isKernelThread(row) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(row.Name), needle) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// isKernelThread matches kthreadd and its children. Name prefixes are only
// consulted when the parent is unknown, so a user process called
// "watchdog-agent" stays visible.
func isKernelThread(row types.ProcessRecord) bool {
	if row.Identity.PID == 0 || row.Identity.PID == kthreaddPID || row.ParentPID == kthreaddPID {
		return true
	}
	if row.ParentPID != 0 {
		return false
	}
	name := strings.ToLower(row.Name)
	for _, prefix := range kernelThreadPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

var kernelThreadPrefixes = []string{"kworker", "ksoftirqd", "kthreadd", "migration", "watchdog", "rcu_", "irq/"}
