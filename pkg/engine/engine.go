// Package engine runs the sampling loop. It is the only owner of the
// cross-cycle state and of the selection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/srodi/itop/pkg/collector"
	"github.com/srodi/itop/pkg/render"
	"github.com/srodi/itop/pkg/report"
	"github.com/srodi/itop/pkg/selection"
	"github.com/srodi/itop/pkg/telemetry"
	"github.com/srodi/itop/pkg/types"
)

const (
	DefaultInterval      = time.Second
	DefaultSampleTimeout = 2 * time.Second
	// historyCapacity bounds the CPU and memory charts.
	historyCapacity = 1000
)

// Sink receives every complete frame. Show is called from the loop goroutine.
type Sink interface {
	Show(render.Model)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(render.Model)

func (f SinkFunc) Show(m render.Model) { f(m) }

// CommandKind enumerates user inputs the loop understands.
type CommandKind int

const (
	CmdNavigate CommandKind = iota
	CmdSortBy
	CmdReverse
	CmdRefresh
	CmdQuit
)

// Command is one user input.
type Command struct {
	Kind   CommandKind
	Nav    selection.Nav
	Column types.SortColumn
}

// Options configure an Engine.
type Options struct {
	Interval      time.Duration
	SampleTimeout time.Duration
	Key           types.SortKey
	Filter        report.FilterConfig
	Cores         int // 0 uses runtime.NumCPU
	Title         string
	Iterations    int // stop after this many sampling cycles; 0 runs until cancelled
	Logger        *slog.Logger
}

// Engine turns successive samples into frames.
type Engine struct {
	src  collector.Source
	sink Sink
	opts Options
	log  *slog.Logger

	cmds chan Command
	done chan struct{}

	// owned by the Run goroutine
	state   CycleState
	sel     selection.State
	key     types.SortKey
	visible []types.ProcessRecord
	host    types.HostStat
	cpuHist *History
	memHist *History
	last    render.Model
	shown   bool
	cycles  uint64
}

// New builds an Engine sampling src and publishing to sink.
func New(src collector.Source, sink Sink, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.SampleTimeout <= 0 {
		opts.SampleTimeout = DefaultSampleTimeout
	}
	if opts.Cores <= 0 {
		opts.Cores = runtime.NumCPU()
	}
	if opts.Title == "" {
		opts.Title = "itop"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		src:     collector.Timed{Inner: src, Budget: opts.SampleTimeout},
		sink:    sink,
		opts:    opts,
		log:     opts.Logger,
		cmds:    make(chan Command, 16),
		done:    make(chan struct{}),
		key:     opts.Key,
		cpuHist: NewHistory(historyCapacity),
		memHist: NewHistory(historyCapacity),
	}
}

// Submit queues a user command. It returns false once Run has returned.
func (e *Engine) Submit(cmd Command) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.cmds <- cmd:
		return true
	case <-e.done:
		return false
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

type sampleOutcome struct {
	snaps   []types.RawProcessSnapshot
	host    types.HostStat
	hostErr error
	err     error
	started time.Time
}

// Run samples on every tick until ctx is cancelled, a quit command arrives,
// or the configured number of iterations is reached. Sampling happens on a
// worker goroutine; everything else happens here, so commands and cycles are
// applied one at a time in arrival order.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan sampleOutcome, 1)
	inFlight := false
	request := func() {
		if inFlight {
			e.log.Debug("previous sample still running, skipping tick")
			return
		}
		inFlight = true
		go e.sample(ctx, results)
	}

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()
	request()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			request()
		case out := <-results:
			inFlight = false
			e.finishCycle(out)
			if e.opts.Iterations > 0 && e.cycles >= uint64(e.opts.Iterations) {
				return nil
			}
		case cmd := <-e.cmds:
			switch cmd.Kind {
			case CmdQuit:
				return nil
			case CmdRefresh:
				request()
			default:
				e.apply(cmd)
			}
		}
	}
}

func (e *Engine) sample(ctx context.Context, results chan<- sampleOutcome) {
	out := sampleOutcome{started: time.Now()}
	out.snaps, out.err = e.src.Sample(ctx)
	if out.err == nil {
		if hs, ok := e.src.(collector.HostSampler); ok {
			hctx, cancel := context.WithTimeout(ctx, e.opts.SampleTimeout)
			out.host, out.hostErr = hs.Host(hctx)
			cancel()
		}
	}
	results <- out
}

func (e *Engine) finishCycle(out sampleOutcome) {
	e.cycles++
	if out.err != nil {
		outcome := telemetry.OutcomeUnavailable
		if errors.Is(out.err, collector.ErrSampleTimeout) {
			outcome = telemetry.OutcomeTimeout
		}
		telemetry.ObserveCycle(outcome, time.Since(out.started))
		e.log.Warn("sample failed", "cycle", e.cycles, "error", out.err)
		e.publish(e.last.WithStatus(fmt.Sprintf("sample failed: %v", out.err)))
		return
	}

	if out.hostErr == nil {
		e.host = out.host
		e.cpuHist.Push(out.host.CPUPercent)
		e.memHist.Push(out.host.MemoryPercent)
	} else if !errors.Is(out.hostErr, errors.ErrUnsupported) {
		e.log.Debug("host stats unavailable", "error", out.hostErr)
	}

	c := Advance(e.state, e.sel, out.snaps, Params{
		Key:      e.key,
		Filter:   e.opts.Filter,
		Cores:    e.opts.Cores,
		TotalMem: e.host.TotalMemory,
	})
	if c.Migrated {
		telemetry.IncMigrations()
		e.log.Debug("selection migrated", "from", e.sel, "to", c.Selection)
	}
	telemetry.AddDegenerate(c.Degenerate)
	telemetry.SetProcesses(len(c.Sorted))

	e.state = c.State
	e.sel = c.Selection
	e.visible = c.Visible

	status := ""
	if c.Degenerate > 0 {
		status = fmt.Sprintf("clock anomaly: kept previous values for %d processes", c.Degenerate)
	}
	e.publish(e.build(status, time.Now()))
	telemetry.ObserveCycle(telemetry.OutcomeOK, time.Since(out.started))
}

// apply handles navigation and sort changes. The list membership is unchanged,
// so no migration runs; the selection only changes row.
func (e *Engine) apply(cmd Command) {
	switch cmd.Kind {
	case CmdNavigate:
		e.sel = selection.Navigate(e.state.Rendered, e.sel, cmd.Nav)
	case CmdSortBy:
		e.resort(e.key.WithColumn(cmd.Column))
	case CmdReverse:
		e.resort(e.key.Reverse())
	default:
		return
	}
	if !e.shown {
		return
	}
	e.publish(e.build(e.last.Status, e.last.UpdatedAt))
}

func (e *Engine) resort(key types.SortKey) {
	e.key = key
	// The re-sorted order is what the user sees next, so a later death
	// migrates relative to it.
	e.state.Rendered = report.Sort(e.visible, key)
}

func (e *Engine) build(status string, at time.Time) render.Model {
	return render.Build(e.state.Rendered, e.sel, render.Input{
		Title:         e.opts.Title,
		Key:           e.key,
		Host:          e.host,
		CPUHistory:    e.cpuHist.Values(),
		MemoryHistory: e.memHist.Values(),
		Status:        status,
		UpdatedAt:     at,
		Cycle:         e.cycles,
	})
}

func (e *Engine) publish(m render.Model) {
	if m.Title == "" {
		// nothing good has been shown yet
		m.Title = e.opts.Title
		m.Key = e.key
		m.Headers = render.Headers(e.key)
		m.SelectedIndex = -1
	}
	e.last = m
	e.shown = true
	e.sink.Show(m)
}
