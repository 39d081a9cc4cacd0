// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/api"
	"github.com/slbailey/retrovue/internal/audit"
	"github.com/slbailey/retrovue/internal/channel"
	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/config"
	"github.com/slbailey/retrovue/internal/database"
	"github.com/slbailey/retrovue/internal/evidence"
	"github.com/slbailey/retrovue/internal/horizon/extend"
	horizonmgr "github.com/slbailey/retrovue/internal/horizon/manager"
	"github.com/slbailey/retrovue/internal/horizon/playlog"
	"github.com/slbailey/retrovue/internal/logging"
	"github.com/slbailey/retrovue/internal/metrics"
	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/schedule"
	"github.com/slbailey/retrovue/internal/supervisor"
	"github.com/slbailey/retrovue/internal/supervisor/services"
	"github.com/slbailey/retrovue/internal/traffic"
)

// version is stamped by -ldflags "-X main.version=..." in release builds.
var version = "dev"

// trafficCooldownWindow is how far back TrafficPlayLogStore.InCooldown
// looks when deciding whether a filler asset is still too recently played
// to be offered again. Not yet exposed through config; channels share one
// window for now.
const trafficCooldownWindow = 4 * time.Hour

// channelStack is one configured channel's full C3/C4/C5/C6/C-channel
// wiring, collected so the operator API can look any of it up by channel
// ID after the supervisor tree is built.
type channelStack struct {
	horizon *horizonmgr.Manager
	playlog *playlog.Daemon
	live    *channel.Manager
}

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrovued: load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})
	log := logging.Logger().With().Str("service", "retrovued").Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("retrovued exited with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	go reportUptime(ctx, startedAt)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sequenceStore, err := schedule.OpenBadgerSequenceStore(cfg.WAL.Path)
	if err != nil {
		return fmt.Errorf("open schedule sequence store: %w", err)
	}
	defer sequenceStore.Close()

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		return fmt.Errorf("create audit_events table: %w", err)
	}
	auditLogger := audit.NewLogger(auditStore, audit.DefaultConfig())
	defer auditLogger.Close()
	auditLogger.StartCleanupRoutine(ctx)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	channelSupervisor, err := supervisor.NewChannelSupervisor(tree)
	if err != nil {
		return fmt.Errorf("build channel supervisor: %w", err)
	}

	bus, err := setupEventBus(ctx, &cfg.NATS, db, tree, log)
	if err != nil {
		return fmt.Errorf("set up horizon audit bus: %w", err)
	}

	assetStore := database.NewAssetStore(db)
	planStore := database.NewSchedulePlanStore(db)
	resolvedStore := database.NewResolvedScheduleDayStore(db)
	compiledLogStore := database.NewCompiledLogStore(db)
	transmissionStore := database.NewTransmissionLogStore(db)
	trafficPlayLogStore := database.NewTrafficPlayLogStore(db, trafficCooldownWindow)
	scheduleMgr := schedule.NewManager(assetStore, sequenceStore)

	horizons := make(map[string]*horizonmgr.Manager, len(cfg.Channels.Channels))
	playlogs := make(map[string]*playlog.Daemon, len(cfg.Channels.Channels))
	live := make(map[string]*channel.Manager, len(cfg.Channels.Channels))

	for _, ch := range cfg.Channels.Channels {
		stack, err := buildChannel(ctx, ch, cfg, assetStore, planStore, resolvedStore, compiledLogStore,
			transmissionStore, trafficPlayLogStore, scheduleMgr, bus, channelSupervisor, log)
		if err != nil {
			return fmt.Errorf("wire channel %s: %w", ch.ID, err)
		}
		horizons[ch.ID] = stack.horizon
		playlogs[ch.ID] = stack.playlog
		live[ch.ID] = stack.live
	}

	ackStore := evidence.NewFileAckStore(cfg.Evidence.AckDir)
	evidenceProcessor := evidence.NewProcessor(ackStore, transmissionStore, cfg.Evidence.AsRunDir, clock.NewSystem(), log)
	evidenceProcessor.SetPlayRecorder(trafficPlayLogStore)
	evidenceServer := evidence.NewServer(evidenceProcessor, log)

	handler := api.NewHandler(db, channelSupervisor, horizons, playlogs, live)
	chiMiddleware := api.NewChiMiddlewareFromAuth(cfg.Security.CORSOrigins, cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow, cfg.Security.RateLimitDisabled)
	router := api.NewRouter(handler, chiMiddleware, evidenceServer, []byte(cfg.Security.JWTSecret))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	log.Info().Int("channels", len(cfg.Channels.Channels)).Str("addr", httpServer.Addr).Msg("retrovued starting")

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, draining supervisor tree")

	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Warn().Err(err).Msg("supervisor tree stopped with error")
		}
	case <-time.After(30 * time.Second):
		log.Warn().Msg("supervisor tree did not stop within timeout")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			log.Warn().Str("service", fmt.Sprintf("%v", svc)).Msg("service failed to stop cleanly")
		}
	}

	return nil
}

// reportUptime keeps app_uptime_seconds current for the operator's
// dashboards until ctx is canceled.
func reportUptime(ctx context.Context, startedAt time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.AppUptime.Set(time.Since(startedAt).Seconds())
		}
	}
}

// buildChannel wires one channel's C3/C4 adapter (extend.Channel), C6
// Horizon Manager, C5 Playlog Horizon Daemon, and C-channel playout
// driver against the shared C1 schedule.Manager and DuckDB stores, then
// registers the trio as one supervisor.ChannelSupervisor entry.
func buildChannel(ctx context.Context, ch models.Channel, cfg *config.Config, assetStore *database.AssetStore,
	planStore *database.SchedulePlanStore, resolvedStore *database.ResolvedScheduleDayStore,
	compiledLogStore *database.CompiledLogStore, transmissionStore *database.TransmissionLogStore,
	trafficPlayLogStore *database.TrafficPlayLogStore, scheduleMgr *schedule.Manager,
	bus *eventBus, channelSupervisor *supervisor.ChannelSupervisor, log zerolog.Logger) (*channelStack, error) {

	chLog := log.With().Str("channel_id", ch.ID).Logger()

	library := traffic.NewCooldownFilteredLibrary(ch.ID, assetStore, trafficPlayLogStore)

	extCfg := extend.Config{
		DayStartHour:           ch.ProgrammingDayStartH,
		StaticFillerURI:        ch.FillerURI,
		StaticFillerDurationMS: ch.FillerDurationMS,
	}
	extChannel, err := extend.New(ch.ID, extCfg, planStore, scheduleMgr, resolvedStore,
		compiledLogStore, transmissionStore, assetStore.GetEpisode, library, chLog)
	if err != nil {
		return nil, fmt.Errorf("build extension adapter: %w", err)
	}

	horizonCfg := horizonmgr.Config{
		MinEPGDays:               cfg.Horizon.MinEPGDays,
		MinExecutionHours:        cfg.Horizon.MinExecutionHours,
		EvaluationInterval:       cfg.Horizon.EvaluationInterval,
		ProgrammingDayStartHour:  ch.ProgrammingDayStartH,
		LockedWindow:             cfg.Horizon.LockedWindow,
		ProactiveExtendThreshold: cfg.Horizon.ProactiveExtendThreshold,
	}
	horizonManager := horizonmgr.New(extChannel, extChannel, extChannel, clock.NewSystem(), horizonCfg, chLog)
	if sink := newChannelAuditSink(bus, chLog); sink != nil {
		horizonManager.SetAuditSink(ch.ID, sink)
	}

	tz, err := time.LoadLocation(ch.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", ch.Timezone, err)
	}
	playlogCfg := playlog.Config{
		ChannelID:               ch.ID,
		MinHours:                float64(cfg.Playlog.TargetHours),
		EvaluationInterval:      cfg.Playlog.EvaluationInterval,
		ProgrammingDayStartHour: ch.ProgrammingDayStartH,
		Timezone:                tz,
		StaticFillerURI:         ch.FillerURI,
		StaticFillerDurationMS:  ch.FillerDurationMS,
	}
	playlogDaemon := playlog.New(compiledLogStore.ForChannel(ch.ID), transmissionStore, library, clock.NewSystem(), playlogCfg, chLog)

	playoutEngine := newPlayoutEngine(bus, ch.ID, chLog)
	channelManager := channel.New(ch.ID, 30*time.Second, transmissionStore, playoutEngine, clock.NewSystem(), chLog)

	if err := channelSupervisor.AddChannel(ctx, ch, horizonManager, playlogDaemon, channelManager); err != nil {
		return nil, fmt.Errorf("register with channel supervisor: %w", err)
	}

	return &channelStack{horizon: horizonManager, playlog: playlogDaemon, live: channelManager}, nil
}
