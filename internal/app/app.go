package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	apphttp "github.com/yungbote/itinerary-backend/internal/http"
	httpH "github.com/yungbote/itinerary-backend/internal/http/handlers"
	"github.com/yungbote/itinerary-backend/internal/itinerary"
	"github.com/yungbote/itinerary-backend/internal/itinerary/enrichment"
	"github.com/yungbote/itinerary-backend/internal/observability"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
	"github.com/yungbote/itinerary-backend/internal/realtime"
	"github.com/yungbote/itinerary-backend/internal/realtime/bus"
)

const serviceName = "itinerary"

type App struct {
	Log       *logger.Logger
	Cfg       Config
	Core      *Core
	Service   *itinerary.Service
	Scheduler *enrichment.Scheduler
	Hub       *realtime.SSEHub
	Bus       bus.Bus
	Server    *apphttp.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	hub := realtime.NewSSEHub(log)
	rtBus, err := bus.New(log, cfg.RealtimeBus)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init realtime bus: %w", err)
	}
	notifier := realtime.NewItineraryNotifier(&bus.Emitter{Bus: rtBus, Log: log}, cfg.TripKey)

	core, err := OpenCore(log, cfg, notifier)
	if err != nil {
		_ = rtBus.Close()
		log.Sync()
		return nil, err
	}

	a := &App{
		Log:          log,
		Cfg:          cfg,
		Core:         core,
		Hub:          hub,
		Bus:          rtBus,
		otelShutdown: otelShutdown,
	}

	var queue itinerary.Enqueuer
	sched, err := NewScheduler(log, cfg, core, notifier)
	if err != nil {
		log.Warn("Enrichment disabled", "error", err)
	} else {
		a.Scheduler = sched
		queue = sched
	}
	a.Service = core.Service(log, queue)

	a.Server = apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		Metrics:          metrics,
		HealthHandler:    httpH.NewHealthHandler(),
		ItineraryHandler: httpH.NewItineraryHandler(log, a.Service),
		RealtimeHandler:  httpH.NewRealtimeHandler(log, hub, cfg.TripKey),
	}, ":"+cfg.Port)

	return a, nil
}

// Start forwards bus messages to the hub and loads the itinerary. It returns once the
// document is in memory; enrichment continues in the background.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}
	if err := a.Service.Bootstrap(ctx); err != nil {
		return err
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Close stops the server, waits for running enrichment and releases every resource.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	a.Scheduler.Close()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	a.Core.Close()
	if a.otelShutdown != nil {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.otelShutdown(sctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Log.Sync()
}
