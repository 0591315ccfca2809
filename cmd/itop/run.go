package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/srodi/itop/pkg/collector"
	"github.com/srodi/itop/pkg/collector/cpu"
	"github.com/srodi/itop/pkg/collector/system"
	"github.com/srodi/itop/pkg/config"
	"github.com/srodi/itop/pkg/engine"
	"github.com/srodi/itop/pkg/logging"
	"github.com/srodi/itop/pkg/telemetry"
	"github.com/srodi/itop/pkg/ui"
)

func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	outFile, isFile := stdout.(*os.File)
	tty := isFile && ui.IsTerminal(outFile)
	jsonOut := cfg.Output == config.OutputJSON
	interactive := tty && !cfg.Batch && !jsonOut

	logger, logCloser, err := logging.New(cfg.Logging(), stderr, interactive)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	src, closeSrc, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSrc(); err != nil {
			logger.Warn("closing process source", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	opts := engine.Options{
		Interval:      cfg.Interval(),
		SampleTimeout: cfg.SampleTimeout(),
		Key:           cfg.SortKey(),
		Filter:        cfg.Filter(),
		Title:         "itop",
		Iterations:    cfg.Iterations,
		Logger:        logger,
	}
	logger.Info("starting", "source", cfg.Source, "interval", opts.Interval, "sort", opts.Key, "interactive", interactive)

	switch {
	case interactive:
		return runScreen(ctx, src, opts)
	case jsonOut:
		return engine.New(src, ui.NewJSONLines(stdout), opts).Run(ctx)
	}
	if tty {
		restore := ui.EnterSingleView(outFile, os.Stdin, logger)
		defer restore()
	}
	return engine.New(src, ui.NewBatch(stdout, tty, 0), opts).Run(ctx)
}

func runScreen(ctx context.Context, src collector.Source, opts engine.Options) error {
	ts, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := ts.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer ts.Fini()

	view := ui.NewScreen(ts)
	eng := engine.New(src, view, opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
	}()
	go func() {
		<-eng.Done()
		cancel()
	}()

	viewErr := view.Run(ctx, eng.Submit)
	cancel()
	return errors.Join(viewErr, <-engineErr)
}

func openSource(cfg config.Config, logger *slog.Logger) (collector.Source, func() error, error) {
	switch cfg.Source {
	case config.SourceBPF:
		src, err := cpu.NewSource(cfg.BPFObject, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start eBPF source: %w", err)
		}
		return src, src.Close, nil
	default:
		return system.NewSource(logger), func() error { return nil }, nil
	}
}
