package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattjoyce/unraid-rrdtool/internal/collector"
	"github.com/mattjoyce/unraid-rrdtool/internal/config"
	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/graph"
	"github.com/mattjoyce/unraid-rrdtool/internal/journal"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"
	"github.com/mattjoyce/unraid-rrdtool/internal/pid"
	"github.com/mattjoyce/unraid-rrdtool/internal/rrd"
)

// app wires one run of the pipeline. Cron triggers a fresh process per
// sweep; there is no internal scheduler.
type app struct {
	settings  *config.Settings
	store     rrd.Store
	collector *collector.Service
	graphs    *graph.Dispatcher
	recorder  journal.Recorder
}

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(settings.Debug, settings.Verbose, logger.IsService())
	logger.Debug().Str("mode", settings.Mode).Str("config_dir", settings.ConfigDir).Msg("Config loaded")

	if err := pid.Write(); err != nil {
		if errors.CodeOf(err) == errors.ErrAlreadyRunning {
			logger.Warn().Msg("Another sweep is still running, skipping this one")
			return
		}
		logger.Fatal().Err(err).Msg("failed to write pid file")
	}
	defer pid.Remove()

	recorder, err := journal.NewService(journal.Config{
		DBPath:  settings.JournalDB,
		Enabled: settings.Journal,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize outcome journal")
	}
	defer recorder.Close()

	timeout := time.Duration(settings.ExecTimeout) * time.Second
	store := rrd.NewTool(settings.RRDToolPath, timeout)

	a := &app{
		settings:  settings,
		store:     store,
		collector: collector.NewService(store, settings.ChipRoot),
		graphs:    graph.NewDispatcher(store, settings.ThemesDir, settings.ConfigDir, timeout),
		recorder:  recorder,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.run(ctx); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// run sweeps every enabled config document sequentially. Per-item
// failures are recorded and never abort the sweep; only a sweep that can
// process no document at all is a hard failure.
func (a *app) run(ctx context.Context) error {
	errFactory := errors.New()

	paths, err := config.ListDocuments(a.settings.ConfigDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errFactory.WithMessage(errors.ErrMissingConfig,
			"No config documents found in "+a.settings.ConfigDir)
	}

	snapshot := &journal.RunSnapshot{
		Mode:      a.settings.Mode,
		StartedAt: time.Now(),
	}

	processed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		doc, err := config.LoadDocument(path)
		if err != nil {
			logger.Error().Str("path", path).Err(err).Msg("Skipping unloadable config")
			snapshot.Items = append(snapshot.Items, journal.ItemOutcome{
				Config:    path,
				Kind:      journal.KindConfig,
				ItemID:    "_load",
				Code:      string(errors.CodeOf(err)),
				Detail:    err.Error(),
				Timestamp: time.Now(),
			})
			continue
		}
		if !doc.IsEnabled() {
			logger.Info().Str("config", doc.Name).Msg("Skipping disabled config")
			continue
		}

		a.process(ctx, doc, snapshot)
		processed++
	}

	snapshot.FinishedAt = time.Now()
	logSummary(snapshot)

	if err := a.recorder.Record(ctx, snapshot); err != nil {
		logger.Error().Err(err).Msg("failed to journal run outcomes")
	}

	if processed == 0 {
		return errFactory.WithMessage(errors.ErrMissingConfig,
			"No enabled config documents could be processed")
	}

	return nil
}

func (a *app) process(ctx context.Context, doc *config.Document, snapshot *journal.RunSnapshot) {
	mode := a.settings.Mode

	if mode == "init" || mode == "all" {
		if err := a.collector.Init(ctx, doc); err != nil {
			logger.Error().Str("config", doc.Name).Err(err).Msg("Store init failed")
			snapshot.Items = append(snapshot.Items, journal.ItemOutcome{
				Config:    doc.Name,
				Kind:      journal.KindConfig,
				ItemID:    "_init",
				Code:      string(errors.CodeOf(err)),
				Detail:    err.Error(),
				Timestamp: time.Now(),
			})
			// Collection and graphing against a missing store would only
			// produce noise; move on to the next document.
			return
		}
	}

	if mode == "collect" || mode == "all" {
		result := a.collector.Collect(ctx, doc)
		for _, o := range result.Outcomes {
			snapshot.Items = append(snapshot.Items, journal.ItemOutcome{
				Config:    doc.Name,
				Kind:      journal.KindSensor,
				ItemID:    o.SensorID,
				OK:        o.OK(),
				Code:      string(o.Code),
				Detail:    o.Detail,
				Timestamp: result.Timestamp,
			})
		}
		if result.AppendErr != nil {
			snapshot.Items = append(snapshot.Items, journal.ItemOutcome{
				Config:    doc.Name,
				Kind:      journal.KindConfig,
				ItemID:    "_append",
				Code:      string(errors.CodeOf(result.AppendErr)),
				Detail:    result.AppendErr.Error(),
				Timestamp: result.Timestamp,
			})
		}
	}

	if mode == "graph" || mode == "all" {
		result := a.graphs.RenderAll(ctx, doc)
		for _, o := range result.Outcomes {
			snapshot.Items = append(snapshot.Items, journal.ItemOutcome{
				Config:    doc.Name,
				Kind:      journal.KindGraph,
				ItemID:    o.Graph,
				OK:        o.OK(),
				Code:      string(o.Code),
				Detail:    o.Detail,
				Timestamp: time.Now(),
			})
		}
	}
}

func logSummary(snapshot *journal.RunSnapshot) {
	ok, failed := 0, 0
	for i := range snapshot.Items {
		if snapshot.Items[i].OK {
			ok++
		} else {
			failed++
		}
	}

	logger.Info().
		Str("mode", snapshot.Mode).
		Int("ok", ok).
		Int("failed", failed).
		Dur("elapsed", snapshot.FinishedAt.Sub(snapshot.StartedAt)).
		Msg("Run complete")
}
