package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jwhan-dev/robofleet/api/events"
	"github.com/jwhan-dev/robofleet/api/robots"
	"github.com/jwhan-dev/robofleet/api/tasks"
	"github.com/jwhan-dev/robofleet/config"
	"github.com/jwhan-dev/robofleet/core/dispatch"
	coremetrics "github.com/jwhan-dev/robofleet/core/metrics"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/core/notify"
	"github.com/jwhan-dev/robofleet/core/scheduler"
	"github.com/jwhan-dev/robofleet/core/store"
	"github.com/jwhan-dev/robofleet/infra/logger"
	"github.com/jwhan-dev/robofleet/infra/metrics"
	"github.com/jwhan-dev/robofleet/infra/mqtt"
	"github.com/jwhan-dev/robofleet/infra/storage"
)

// Service wires the orchestration engine to its transports and stores.
type Service struct {
	Orchestrator *dispatch.Orchestrator
	Hub          *notify.Hub

	cfg       *config.Config
	log       logger.Logger
	link      *mqtt.Link
	telemetry *mqtt.TelemetryReceiver
	sched     *scheduler.Scheduler
	db        *sql.DB
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var (
		robotStore store.RobotStore
		taskStore  store.TaskStore
		db         *sql.DB
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		var err error
		db, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		robotStore = storage.NewRobotStore(db)
		taskStore = storage.NewTaskStore(db)
	default:
		robotStore = store.NewMemoryRobotStore()
		taskStore = store.NewMemoryTaskStore()
	}

	link, err := mqtt.NewLink(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt link: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	hub := notify.NewHub(logger.New("notifier"))

	dispatcher, err := dispatch.NewDispatcher(robotStore, taskStore, link, cfg.Dispatch, logger.New("dispatcher"))
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	orch, err := dispatch.NewOrchestrator(dispatcher, taskStore, robotStore, hub, sink, cfg.Dispatch, logger.New("orchestrator"))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	telemetryCfg := cfg.MQTT
	if telemetryCfg.ClientID != "" {
		telemetryCfg.ClientID += "-telemetry"
	}
	recv, err := mqtt.NewTelemetryReceiver(telemetryCfg, orch)
	if err != nil {
		return nil, fmt.Errorf("telemetry receiver: %w", err)
	}

	interval := time.Duration(cfg.Dispatch.ReconcileIntervalSeconds) * time.Second
	sched, err := scheduler.New(interval, orch, logger.New("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	svc := &Service{
		Orchestrator: orch,
		Hub:          hub,
		cfg:          cfg,
		log:          logg,
		link:         link,
		telemetry:    recv,
		sched:        sched,
		db:           db,
	}
	if err := svc.registerFleet(robotStore); err != nil {
		return nil, err
	}
	return svc, nil
}

// registerFleet seeds the configured robots. Records that already exist are
// kept as-is so restarts do not reset live state.
func (s *Service) registerFleet(robotStore store.RobotStore) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, seed := range s.cfg.Fleet.Robots {
		r := model.Robot{
			ID:       seed.ID,
			Name:     seed.Name,
			Status:   model.RobotIdle,
			Battery:  seed.Battery,
			Position: model.Position{X: seed.X, Y: seed.Y},
		}
		if _, err := robotStore.Get(ctx, r.ID); err == nil {
			continue
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("robot %s: %w", r.ID, err)
		}
		if err := robotStore.Register(ctx, r); err != nil {
			return fmt.Errorf("register robot %s: %w", r.ID, err)
		}
		s.log.Infof("registered robot %s (%s)", r.ID, r.Name)
	}
	return nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.sched.Run(ctx)
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	taskHandler := tasks.NewHandler(s.Orchestrator)
	mux.Handle("/api/tasks", taskHandler)
	mux.Handle("/api/tasks/", taskHandler)
	mux.Handle("/api/robots", robots.NewHandler(s.Orchestrator))
	mux.Handle("/api/events", events.NewHandler(s.Hub))
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.telemetry.Close()
	s.link.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
