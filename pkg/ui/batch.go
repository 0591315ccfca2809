package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/srodi/itop/pkg/render"
)

const clearSequence = "\033[H\033[2J"

// Batch prints each frame as plain text. With redraw set it clears the
// terminal and shows the banner first, so a terminal shows a single view.
type Batch struct {
	w      io.Writer
	redraw bool
	limit  int
}

// NewBatch returns a Batch writing to w. limit caps the rows per frame; 0
// prints every row.
func NewBatch(w io.Writer, redraw bool, limit int) *Batch {
	return &Batch{w: w, redraw: redraw, limit: limit}
}

// Show implements engine.Sink.
func (b *Batch) Show(m render.Model) {
	var buf bytes.Buffer
	if b.redraw {
		buf.WriteString(clearSequence)
		buf.WriteString(Banner())
	}
	writeFrame(&buf, m, b.limit, b.redraw)
	if !b.redraw {
		buf.WriteString("\n")
	}
	_, _ = b.w.Write(buf.Bytes())
}

// writeFrame renders m as text. color adds ANSI highlights for a terminal.
func writeFrame(buf *bytes.Buffer, m render.Model, limit int, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + reset
	}
	fmt.Fprintln(buf, summaryLine(m))
	fmt.Fprintf(buf, "CPU %5.1f%%  MEM %5.1f%%", m.Host.CPUPercent, m.Host.MemoryPercent)
	if m.Host.TotalMemory > 0 {
		fmt.Fprintf(buf, " of %s", formatBytes(m.Host.TotalMemory))
	}
	fmt.Fprintln(buf, paint(dimGray, "  |  sort "+m.Key.String()))
	if m.Status != "" {
		fmt.Fprintln(buf, paint(warnAmber, "[!] "+m.Status))
	}
	buf.WriteString("\n")

	if len(m.Rows) == 0 {
		fmt.Fprintln(buf, "No processes matched current filters")
		return
	}

	rows := m.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	titles := make([]string, 0, len(m.Headers))
	for _, c := range m.Headers {
		titles = append(titles, columnTitle(c))
	}
	fmt.Fprintln(tw, " \t"+strings.Join(titles, "\t")+"\t")
	for _, r := range rows {
		marker := " "
		if r.Selected {
			marker = ">"
		}
		c := rowCells(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", marker, c[0], c[1], c[2], c[3], c[4], c[5])
	}
	tw.Flush()
	if len(rows) < len(m.Rows) {
		fmt.Fprintf(buf, "… %d more\n", len(m.Rows)-len(rows))
	}
}
