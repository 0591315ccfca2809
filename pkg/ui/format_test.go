package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/srodi/itop/pkg/render"
	"github.com/srodi/itop/pkg/types"
)

func TestSparklineOldestLeft(t *testing.T) {
	// newest first: 100 is the latest value
	assert.Equal(t, "▁▄█", Sparkline([]float64{100, 50, 0}, 10, 100))
}

func TestSparklineTruncatesToWidth(t *testing.T) {
	got := Sparkline([]float64{100, 100, 0, 0, 0}, 2, 100)
	assert.Equal(t, "██", got)
}

func TestSparklineClamps(t *testing.T) {
	assert.Equal(t, "█▁", Sparkline([]float64{-5, 250}, 2, 100))
	assert.Empty(t, Sparkline(nil, 5, 100))
	assert.Empty(t, Sparkline([]float64{1}, 0, 100))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "postgres", truncateRunes("postgres", 8))
	assert.Equal(t, "postg…", truncateRunes("postgresql", 6))
	assert.Equal(t, "p", truncateRunes("postgres", 1))
	assert.Empty(t, truncateRunes("postgres", 0))
}

func TestTableLineFitsWidth(t *testing.T) {
	row := render.Row{PID: 4242, PPID: 1, Name: strings.Repeat("x", 200), CPUPercent: 12.34, MemoryPercent: 1.5, RSSBytes: 3 << 20}
	line := tableLine(rowCells(row), 80)
	assert.Equal(t, 80, utf8.RuneCountInString(line))
	assert.Contains(t, line, "12.3")
	assert.Contains(t, line, "3.0 MiB")
}

func TestHeaderCellsMarkSortColumn(t *testing.T) {
	cells := headerCells(render.Headers(types.SortKey{Column: types.SortByName, Direction: types.Ascending}))
	assert.Equal(t, "NAME▲", cells[2])
	assert.Equal(t, "PID", cells[0])
}

func TestSummaryLine(t *testing.T) {
	m := render.Model{
		Title: "itop",
		Host:  types.HostStat{Hostname: "db-1", Load1: 0.5, Load5: 0.25, Load15: 0.125},
		Rows:  make([]render.Row, 3),
	}
	assert.Equal(t, "itop | db-1 | load 0.50 0.25 0.12 | 3 processes", summaryLine(m))
}
