// Package app assembles the server from configuration and drives the
// simulation loop until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ironhaul/server/internal/autosave"
	"ironhaul/server/internal/config"
	"ironhaul/server/internal/date"
	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/netsync"
	"ironhaul/server/internal/netsync/ws"
	"ironhaul/server/internal/observability"
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/save"
	"ironhaul/server/internal/scenario"
	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
	"ironhaul/server/internal/world"
)

const (
	heartbeatInterval = 2 * time.Second
	passPause         = time.Millisecond
	shutdownTimeout   = 5 * time.Second
)

// Run builds the full server from cfg and drives the simulation loop
// until ctx is cancelled. It returns nil on a clean shutdown.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	state := gamestate.New()
	sceneMgr := scene.NewManager()
	sceneMgr.SetMode(scene.ModeGameplay)
	w := world.New(world.DefaultConfig(), logger)

	// The authority decides which ticks may run and where confirmed
	// command batches come from.
	scenarioPath := cfg.Scenario.Path
	var resume *save.Game
	if cfg.Scenario.Resume != "" {
		game, err := save.Read(cfg.Scenario.Resume)
		if err != nil {
			return fmt.Errorf("resume save: %w", err)
		}
		resume = &game
		if game.Scenario != "" {
			scenarioPath = game.Scenario
		}
	}
	var (
		authority sim.Authority
		host      *ws.Host
		client    *ws.Client
	)
	switch {
	case cfg.Network.JoinURL != "":
		c, err := ws.Dial(ws.DialConfig{
			URL:          cfg.Network.JoinURL,
			Logger:       logger,
			WriteTimeout: cfg.Network.WriteTimeout(),
		})
		if err != nil {
			return fmt.Errorf("join session: %w", err)
		}
		defer c.Close()
		client = c
		authority = c
		if remote := c.Scenario(); remote != "" {
			scenarioPath = remote
		}
		// A joining peer rebuilds the host's world from its scenario;
		// a local save image cannot match the session.
		if resume != nil {
			logger.Warn("ignoring resume save while joining a session",
				zap.String("save", cfg.Scenario.Resume))
			resume = nil
		}
	case cfg.Network.Server:
		host = ws.NewHost(ws.HostConfig{
			Logger:       logger,
			Scenario:     scenarioPath,
			WriteTimeout: cfg.Network.WriteTimeout(),
		})
		authority = host
	default:
		authority = netsync.NewSynchronizer()
	}

	if resume != nil {
		state.Restore(resume.State)
		w.Restore(resume.World)
		state.SetWorldLoaded(true)
		logger.Info("session resumed",
			zap.String("save", cfg.Scenario.Resume),
			zap.Uint32("tick", resume.State.Ticks),
			zap.String("date", state.Today().String()))
	} else {
		desc := scenario.Default()
		if scenarioPath != "" {
			d, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}
			desc = d
		}
		scenario.Start(state, desc)
		w.Populate(state)
		logger.Info("scenario ready",
			zap.String("name", desc.Name),
			zap.Int("startYear", desc.StartYear),
			zap.Uint64("seed", desc.Seed))
	}

	var (
		saveMetrics    *observability.SaveCollector
		metricsHandler http.Handler
		simMetrics     sim.Metrics
	)
	if cfg.Metrics.Enabled {
		loop, err := observability.NewLoopCollector(nil)
		if err != nil {
			return fmt.Errorf("register loop metrics: %w", err)
		}
		saves, err := observability.NewSaveCollector(nil)
		if err != nil {
			return fmt.Errorf("register save metrics: %w", err)
		}
		saveMetrics = saves
		metricsHandler = loop.Handler()
		simMetrics = loop
	}

	writer := save.Writer(save.FileWriter{})
	if saveMetrics != nil {
		writer = saveMetrics.InstrumentWriter(writer)
	}
	saver := autosave.NewManager(autosave.ManagerConfig{
		Directory:       cfg.Autosave.Directory,
		FrequencyMonths: cfg.Autosave.FrequencyMonths,
		Retention:       cfg.Autosave.Retention,
		Writer:          writer,
		Logger:          logger,
		Scene:           sceneMgr,
		Capture: func() save.Game {
			return save.Game{
				Scenario: scenarioPath,
				State:    state.Snapshot(),
				World:    w.Snapshot(),
			}
		},
	})

	record := rng.NewRecord(rng.DefaultRecordCapacity)
	tweener := sim.NewTweener(w)
	boundary := w.Boundary(saver)
	executor := sim.NewExecutor(sim.ExecutorDeps{
		State:     state,
		Scene:     sceneMgr,
		Authority: authority,
		Applier:   w.Dispatcher(),
		Updaters:  w.Updaters(),
		Boundary:  &boundary,
		Tweener:   tweener,
		Record:    record,
		Reporter:  loadErrorLogger{logger: logger},
		Logger:    logger,
		Metrics:   simMetrics,
	})
	scheduler := sim.NewScheduler(sim.SchedulerDeps{
		Config: sim.SchedulerConfig{
			StepSeconds:       cfg.Loop.StepSeconds(),
			MaxBacklogSeconds: cfg.Loop.MaxBacklogSeconds(),
			TimeScale:         cfg.Loop.TimeScale,
			CatchupTicks:      cfg.Loop.CatchupMaxTicks,
			UncappedFPS:       cfg.Loop.UncappedFPS,
		},
		State:     state,
		Scene:     sceneMgr,
		Executor:  executor,
		Authority: authority,
		Tweener:   tweener,
		Logger:    logger,
		Metrics:   simMetrics,
	})

	probe := &observability.Probe{}
	httpErr := make(chan error, 1)
	if cfg.Network.ListenAddress != "" {
		var socket http.HandlerFunc
		if host != nil {
			socket = host.Handle
		}
		handler := observability.NewHTTPHandler(observability.HTTPHandlerConfig{
			Probe:       probe,
			Record:      record,
			Metrics:     metricsHandler,
			MetricsPath: cfg.Metrics.Path,
			Socket:      socket,
			EnablePprof: cfg.Metrics.Pprof,
		})
		srv := &http.Server{Addr: cfg.Network.ListenAddress, Handler: handler}
		go func() {
			logger.Info("http surface up", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		}()
	}

	applyScenario := func(path string) error {
		d, err := scenario.Load(path)
		if err != nil {
			return err
		}
		scenarioPath = path
		scenario.Start(state, d)
		w.Populate(state)
		if host != nil {
			host.SetScenario(path)
		}
		if r, ok := authority.(interface{ Reset() }); ok {
			r.Reset()
		}
		saver.Reset()
		tweener.Reset()
		logger.Info("scenario switched", zap.String("path", path), zap.String("name", d.Name))
		return nil
	}

	lastFingerprintTick := ^uint32(0)
	lastHeartbeat := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case err := <-httpErr:
			return fmt.Errorf("http server: %w", err)
		default:
		}

		scheduler.Update()

		if path, ok := w.TakePendingScenario(); ok {
			if err := applyScenario(path); err != nil {
				state.RaiseLoadError(gamestate.LoadError{
					Code:    gamestate.LoadErrorMessage,
					Message: fmt.Sprintf("scenario %s: %v", path, err),
				})
			}
		}

		if client != nil {
			if err := client.Err(); err != nil {
				return fmt.Errorf("session lost: %w", err)
			}
			if now := time.Now(); now.Sub(lastHeartbeat) >= heartbeatInterval {
				lastHeartbeat = now
				if err := client.Heartbeat(); err != nil {
					logger.Warn("heartbeat failed", zap.Error(err))
				}
			}
		}

		diag := observability.Diagnostics{
			Tick:               state.Ticks(),
			Date:               state.Today().String(),
			ObjectiveMonths:    uint32(state.ObjectiveMonths()),
			AccumulatorSeconds: scheduler.Accumulator(),
			TickDeltaMs:        scheduler.TickDeltaMs(),
		}
		if host != nil {
			diag.Sessions = host.SessionCount()
		}
		// Fingerprinting hashes the whole world, so refresh it only on
		// day boundaries.
		if tick := state.Ticks(); tick%date.TicksPerDay == 0 && tick != lastFingerprintTick {
			if fp, err := w.Fingerprint(); err == nil {
				diag.Fingerprint = fp
			}
			lastFingerprintTick = tick
		}
		probe.Publish(diag)

		time.Sleep(passPause)
	}
}

// loadErrorLogger surfaces staged load errors into the log stream.
type loadErrorLogger struct {
	logger *zap.Logger
}

func (l loadErrorLogger) ReportLoadError(err gamestate.LoadError) {
	switch err.Code {
	case gamestate.LoadErrorObjects:
		l.logger.Warn("objects missing after load", zap.Strings("objects", err.Objects))
	default:
		l.logger.Warn("load error", zap.Int8("code", err.Code), zap.String("message", err.Message))
	}
}
