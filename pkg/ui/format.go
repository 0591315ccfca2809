package ui

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/srodi/itop/pkg/render"
)

const (
	pidWidth     = 7
	percentWidth = 7
	rssWidth     = 10
	minNameWidth = 8
	// fixed columns plus the five separating spaces
	fixedWidth   = 2*pidWidth + 2*percentWidth + rssWidth + 5
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the newest width values of a newest-first series, oldest on
// the left. Values are scaled against ceiling and clamped into range.
func Sparkline(newestFirst []float64, width int, ceiling float64) string {
	if width <= 0 || len(newestFirst) == 0 {
		return ""
	}
	if ceiling <= 0 {
		ceiling = 100
	}
	n := min(width, len(newestFirst))
	out := make([]rune, n)
	for i := 0; i < n; i++ {
		v := newestFirst[i]
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		level := int(v / ceiling * float64(len(sparkLevels)-1))
		level = min(level, len(sparkLevels)-1)
		out[n-1-i] = sparkLevels[level]
	}
	return string(out)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatBytes(b uint64) string {
	return humanize.IBytes(b)
}

func columnTitle(c render.Column) string {
	if c.Arrow == "" {
		return c.Title
	}
	return c.Title + c.Arrow
}

// nameWidth is what is left of width for the NAME column.
func nameWidth(width int) int {
	return max(minNameWidth, width-fixedWidth)
}

func tableLine(cells [6]string, width int) string {
	nw := nameWidth(width)
	return fmt.Sprintf("%*s %*s %-*s %*s %*s %*s",
		pidWidth, cells[0],
		pidWidth, cells[1],
		nw, truncateRunes(cells[2], nw),
		percentWidth, cells[3],
		percentWidth, cells[4],
		rssWidth, cells[5])
}

func headerCells(cols []render.Column) [6]string {
	var cells [6]string
	for i := 0; i < len(cols) && i < len(cells); i++ {
		cells[i] = columnTitle(cols[i])
	}
	return cells
}

func rowCells(r render.Row) [6]string {
	return [6]string{
		fmt.Sprintf("%d", r.PID),
		fmt.Sprintf("%d", r.PPID),
		r.Name,
		formatPercent(r.CPUPercent),
		formatPercent(r.MemoryPercent),
		formatBytes(r.RSSBytes),
	}
}

// summaryLine is the title bar: name, host, load and clock.
func summaryLine(m render.Model) string {
	parts := []string{m.Title}
	if m.Host.Hostname != "" {
		parts = append(parts, m.Host.Hostname)
	}
	if m.Host.Load1 > 0 || m.Host.Load5 > 0 || m.Host.Load15 > 0 {
		parts = append(parts, fmt.Sprintf("load %.2f %.2f %.2f", m.Host.Load1, m.Host.Load5, m.Host.Load15))
	}
	parts = append(parts, fmt.Sprintf("%d processes", len(m.Rows)))
	if !m.UpdatedAt.IsZero() {
		parts = append(parts, m.UpdatedAt.Format("15:04:05"))
	}
	return strings.Join(parts, " | ")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
