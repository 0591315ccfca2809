package report

import (
	"sort"
	"strings"

	"github.com/srodi/itop/pkg/types"
)

// Sort returns records ordered by key. Equal keys fall back to ascending PID,
// then start time, whatever the direction, so the same set always sorts the
// same way. records is left untouched.
func Sort(records []types.ProcessRecord, key types.SortKey) []types.ProcessRecord {
	out := make([]types.ProcessRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if c := compareColumn(a, b, key.Column); c != 0 {
			if key.Direction == types.Descending {
				return c > 0
			}
			return c < 0
		}
		if a.Identity.PID != b.Identity.PID {
			return a.Identity.PID < b.Identity.PID
		}
		return a.Identity.StartTime < b.Identity.StartTime
	})
	return out
}

func compareColumn(a, b *types.ProcessRecord, col types.SortColumn) int {
	switch col {
	case types.SortByMemory:
		return compareOrdered(a.RSSBytes, b.RSSBytes)
	case types.SortByPID:
		return compareOrdered(a.Identity.PID, b.Identity.PID)
	case types.SortByName:
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	default:
		return compareOrdered(a.CPUPercent, b.CPUPercent)
	}
}

func compareOrdered[T ~int32 | ~uint64 | ~float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
