// Package render assembles what a view draws. Nothing here holds state
// between calls.
package render

import (
	"time"

	"github.com/srodi/itop/pkg/selection"
	"github.com/srodi/itop/pkg/types"
)

// Column is one header cell.
type Column struct {
	Title  string
	Sort   types.SortColumn
	Sorted bool // the active sort column
	Arrow  string
}

// Row is one process line.
type Row struct {
	Identity      types.ProcessIdentity
	PID           int32
	PPID          int32
	Name          string
	CPUPercent    float64
	MemoryPercent float64
	RSSBytes      uint64
	Selected      bool
}

// Input carries everything besides the list and the selection.
type Input struct {
	Title         string
	Key           types.SortKey
	Host          types.HostStat
	CPUHistory    []float64 // newest first
	MemoryHistory []float64 // newest first
	Status        string
	UpdatedAt     time.Time
	Cycle         uint64
}

// Model is a complete frame.
type Model struct {
	Title         string
	Headers       []Column
	Key           types.SortKey
	Rows          []Row
	SelectedIndex int // -1 when nothing is highlighted
	Host          types.HostStat
	CPUHistory    []float64
	MemoryHistory []float64
	Status        string
	UpdatedAt     time.Time
	Cycle         uint64
}

type columnSpec struct {
	title    string
	sort     types.SortColumn
	sortable bool
}

var columns = []columnSpec{
	{title: "PID", sort: types.SortByPID, sortable: true},
	{title: "PPID"},
	{title: "NAME", sort: types.SortByName, sortable: true},
	{title: "CPU%", sort: types.SortByCPU, sortable: true},
	{title: "MEM%", sort: types.SortByMemory, sortable: true},
	{title: "RSS", sort: types.SortByMemory, sortable: true},
}

// Headers returns the column headers with the active sort column marked.
func Headers(key types.SortKey) []Column {
	out := make([]Column, 0, len(columns))
	arrow := "▼"
	if key.Direction == types.Ascending {
		arrow = "▲"
	}
	for _, c := range columns {
		col := Column{Title: c.title, Sort: c.sort}
		// MEM% and RSS share a key; mark only the first.
		if c.sortable && c.sort == key.Column && !sortedAlready(out) {
			col.Sorted = true
			col.Arrow = arrow
		}
		out = append(out, col)
	}
	return out
}

func sortedAlready(cols []Column) bool {
	for _, c := range cols {
		if c.Sorted {
			return true
		}
	}
	return false
}

// Build turns the sorted list and the selection into a frame.
func Build(sorted []types.ProcessRecord, sel selection.State, in Input) Model {
	m := Model{
		Title:         in.Title,
		Headers:       Headers(in.Key),
		Key:           in.Key,
		Rows:          make([]Row, 0, len(sorted)),
		SelectedIndex: -1,
		Host:          in.Host,
		CPUHistory:    append([]float64(nil), in.CPUHistory...),
		MemoryHistory: append([]float64(nil), in.MemoryHistory...),
		Status:        in.Status,
		UpdatedAt:     in.UpdatedAt,
		Cycle:         in.Cycle,
	}
	selID, hasSel := sel.Identity()
	for i, rec := range sorted {
		row := Row{
			Identity:      rec.Identity,
			PID:           rec.Identity.PID,
			PPID:          rec.ParentPID,
			Name:          rec.Name,
			CPUPercent:    rec.CPUPercent,
			MemoryPercent: rec.MemoryPercent,
			RSSBytes:      rec.RSSBytes,
		}
		if hasSel && rec.Identity == selID && m.SelectedIndex < 0 {
			row.Selected = true
			m.SelectedIndex = i
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// WithStatus returns a copy of m showing status. Used to redisplay the last
// good frame after a failed cycle.
func (m Model) WithStatus(status string) Model {
	m.Status = status
	return m
}

// Window returns the first visible row so that the selected row stays inside a
// viewport of height rows, moving offset as little as possible.
func Window(selected, total, height, offset int) int {
	if height <= 0 || total <= 0 {
		return 0
	}
	maxOffset := max(0, total-height)
	if selected >= 0 {
		if selected < offset {
			offset = selected
		} else if selected >= offset+height {
			offset = selected - height + 1
		}
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
