package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/srodi/itop/pkg/engine"
	"github.com/srodi/itop/pkg/render"
)

var (
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleLabel    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCPU      = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMemory   = tcell.StyleDefault.Foreground(tcell.ColorMediumPurple)
	styleHeader   = tcell.StyleDefault.Reverse(true).Bold(true)
	styleRow      = tcell.StyleDefault
	styleSelected = tcell.StyleDefault.Background(tcell.ColorDarkCyan).Foreground(tcell.ColorWhite).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// header rows above the table: summary, two charts, blank, column titles
const chromeTop = 5

type stopEvent struct{}

// Screen draws frames on a tcell screen and turns keys into engine commands.
// Show may be called from any goroutine; drawing happens on the Run goroutine.
type Screen struct {
	screen tcell.Screen

	mu    sync.Mutex
	model render.Model
	ready bool

	// owned by the draw path
	offset    int
	pageSize  int
	hasSelect bool
}

// NewScreen wraps an initialized tcell screen. The caller calls Fini.
func NewScreen(s tcell.Screen) *Screen {
	s.HideCursor()
	return &Screen{screen: s, pageSize: 1}
}

// Show implements engine.Sink.
func (s *Screen) Show(m render.Model) {
	s.mu.Lock()
	s.model = m
	s.ready = true
	s.mu.Unlock()
	_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Run handles terminal events until ctx is done, the user quits, or submit
// reports that the engine has stopped.
func (s *Screen) Run(ctx context.Context, submit func(engine.Command) bool) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(stopEvent{}))
	})
	defer stop()

	for {
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.screen.Sync()
			s.draw()
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(stopEvent); ok {
				return nil
			}
			s.draw()
		case *tcell.EventKey:
			cmd, ok := commandFor(ev, s.hasSelect, s.pageSize)
			if !ok {
				continue
			}
			if !submit(cmd) || cmd.Kind == engine.CmdQuit {
				return nil
			}
		}
	}
}

func (s *Screen) draw() {
	s.mu.Lock()
	m, ready := s.model, s.ready
	s.mu.Unlock()

	s.screen.Clear()
	width, height := s.screen.Size()
	if !ready {
		drawText(s.screen, 0, 0, width, "itop: waiting for the first sample…", styleLabel)
		s.screen.Show()
		return
	}
	s.hasSelect = m.SelectedIndex >= 0

	drawText(s.screen, 0, 0, width, summaryLine(m), styleTitle)
	s.drawChart(1, width, "CPU", m.CPUHistory, m.Host.CPUPercent, "", styleCPU)
	memNote := ""
	if m.Host.TotalMemory > 0 {
		memNote = " of " + formatBytes(m.Host.TotalMemory)
	}
	s.drawChart(2, width, "MEM", m.MemoryHistory, m.Host.MemoryPercent, memNote, styleMemory)

	drawText(s.screen, 0, chromeTop-1, width, tableLine(headerCells(m.Headers), width), styleHeader)

	tableHeight := max(0, height-chromeTop-1)
	s.pageSize = max(1, tableHeight)
	s.offset = render.Window(m.SelectedIndex, len(m.Rows), tableHeight, s.offset)
	for i := 0; i < tableHeight; i++ {
		idx := s.offset + i
		if idx >= len(m.Rows) {
			break
		}
		row := m.Rows[idx]
		style := styleRow
		if row.Selected {
			style = styleSelected
		}
		drawText(s.screen, 0, chromeTop+i, width, tableLine(rowCells(row), width), style)
	}

	if m.Status != "" {
		drawText(s.screen, 0, height-1, width, m.Status, styleStatus)
	} else {
		drawText(s.screen, 0, height-1, width, fmt.Sprintf("sort %s  |  %s", m.Key, KeyHelp), styleHelp)
	}
	s.screen.Show()
}

func (s *Screen) drawChart(y, width int, label string, history []float64, current float64, note string, style tcell.Style) {
	prefix := fmt.Sprintf("%s %5.1f%%%s ", label, current, note)
	drawText(s.screen, 0, y, len([]rune(prefix)), prefix, styleLabel)
	x := len([]rune(prefix))
	drawText(s.screen, x, y, width-x, Sparkline(history, width-x, 100), style)
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	runes := []rune(text)
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		screen.SetContent(x+i, y, ch, nil, style)
	}
}
