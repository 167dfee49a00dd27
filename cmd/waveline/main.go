package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waveline/waveline/config"
	"github.com/waveline/waveline/pkg/api"
	"github.com/waveline/waveline/pkg/archive"
	"github.com/waveline/waveline/pkg/devicemodel"
	"github.com/waveline/waveline/pkg/engine"
	"github.com/waveline/waveline/pkg/eventbus"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/metrics"
	"github.com/waveline/waveline/pkg/telemetry/tracing"
	"github.com/waveline/waveline/pkg/version"
	"github.com/waveline/waveline/pkg/waveform"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")

	// CLI overrides
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	logger.SetGlobal(log)
	defer func() { _ = log.Close() }()

	if err := run(cfg, log); err != nil {
		log.Error("waveline exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting waveline",
		"version", version.Version,
		"environment", cfg.App.Environment,
		"channels", len(cfg.Channels),
		"detectors", len(cfg.Detectors),
	)

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:              cfg.Metrics.Enabled,
		Port:                 cfg.Metrics.Port,
		Path:                 cfg.Metrics.Path,
		CycleDurationBuckets: metrics.DefaultConfig().CycleDurationBuckets,
		HTTPDurationBuckets:  metrics.DefaultConfig().HTTPDurationBuckets,
	})

	// The memory bus feeds in-process consumers (websocket stream, archive);
	// a redis bus is teed in for out-of-process fan-out when configured.
	memoryBus := eventbus.NewMemoryBus()
	var bus eventbus.Bus = memoryBus
	if cfg.Bus.Kind == "redis" {
		redisBus, err := eventbus.NewRedisBus(ctx, eventbus.RedisConfig{
			Addr:         cfg.Bus.Redis.Addr,
			Password:     cfg.Bus.Redis.Password,
			DB:           cfg.Bus.Redis.DB,
			DialTimeout:  cfg.Bus.Redis.DialTimeout,
			WriteTimeout: cfg.Bus.Redis.WriteTimeout,
		}, log)
		if err != nil {
			return fmt.Errorf("connect redis bus: %w", err)
		}
		bus = eventbus.NewFanout(memoryBus, redisBus)
	}
	defer func() { _ = bus.Close() }()

	model := devicemodel.New(
		devicemodel.WithBus(bus),
		devicemodel.WithModelLogger(log),
	)
	orchestrator := waveform.NewOrchestrator(model,
		waveform.WithLogger(log),
		waveform.WithMetrics(metricsManager),
	)

	if err := registerChannels(cfg, model, orchestrator); err != nil {
		return err
	}
	registerDetectors(cfg, orchestrator)

	if cfg.Archive.Enabled {
		store, err := archive.New(archive.Config{
			Path:       cfg.Archive.Path,
			SyncWrites: cfg.Archive.SyncWrites,
		}, log)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer func() { _ = store.Close() }()

		sub, err := memoryBus.Subscribe(eventbus.SubjectPrefix+".>", 256)
		if err != nil {
			return fmt.Errorf("subscribe archive: %w", err)
		}
		go store.Consume(ctx, sub.C())
		log.Info("batch archive enabled", "path", cfg.Archive.Path)
	}

	if cfg.Server.Enabled {
		stream := api.NewStreamHandler(api.StreamConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, memoryBus, log, metricsManager)
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("batch stream stopped", "error", err)
			}
		}()

		server := api.NewHTTPServer(&cfg.Server, log, &api.Handlers{
			Channels: api.NewChannelHandler(model, log),
			Stream:   stream,
			Metrics:  metricsManager,
		})
		go func() {
			if err := server.Start(); err != nil {
				log.Error("api server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	} else if cfg.Metrics.Enabled {
		go func() {
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath)
		if err != nil {
			return fmt.Errorf("create config watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()
		watcher.OnChange(func(next *config.Config) {
			log.SetLevel(logger.ParseLevel(next.Log.Level))
			log.Info("configuration reloaded", "log_level", next.Log.Level)
		})
		go func() {
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	runner := engine.NewRunner(orchestrator, model,
		engine.WithInterval(cfg.Update.Interval),
		engine.WithRunnerLogger(log),
	)
	err = runner.Run(ctx)
	if err == context.Canceled {
		log.Info("waveline stopped")
		return nil
	}
	return err
}

// registerChannels declares every configured channel in the model and wires
// its generator into the orchestrator.
func registerChannels(cfg *config.Config, model *devicemodel.Model, orchestrator *waveform.Orchestrator) error {
	for _, ch := range cfg.Channels {
		if err := model.AddChannel(waveform.Descriptor{
			ChannelID:    ch.ID,
			Label:        ch.Label,
			Unit:         ch.Unit,
			SamplePeriod: ch.SamplePeriod,
		}); err != nil {
			return fmt.Errorf("add channel %s: %w", ch.ID, err)
		}

		generator, err := buildGenerator(ch)
		if err != nil {
			return err
		}
		if err := orchestrator.RegisterChannel(ch.ID, generator); err != nil {
			return fmt.Errorf("register channel %s: %w", ch.ID, err)
		}

		state := waveform.ActivationOn
		if ch.Activation != "" {
			state, err = waveform.ParseActivation(ch.Activation)
			if err != nil {
				return err
			}
		}
		if err := orchestrator.SetActivation(ch.ID, state); err != nil {
			return fmt.Errorf("activate channel %s: %w", ch.ID, err)
		}
	}
	return nil
}

func buildGenerator(ch config.ChannelConfig) (waveform.Generator, error) {
	switch ch.Waveform {
	case "sine":
		return waveform.NewSineGenerator(ch.Min, ch.Max, ch.WaveformPeriod, ch.SamplePeriod), nil
	case "sawtooth":
		return waveform.NewSawtoothGenerator(ch.Min, ch.Max, ch.WaveformPeriod, ch.SamplePeriod), nil
	case "triangle":
		return waveform.NewTriangleGenerator(ch.Min, ch.Max, ch.WaveformPeriod, ch.SamplePeriod), nil
	default:
		return nil, fmt.Errorf("unknown waveform kind: %q", ch.Waveform)
	}
}

func registerDetectors(cfg *config.Config, orchestrator *waveform.Orchestrator) {
	for _, det := range cfg.Detectors {
		annotation := waveform.Annotation{
			Type:  det.AnnotationType,
			Label: det.AnnotationLabel,
		}
		orchestrator.RegisterDetector(
			waveform.NewRisingEdgeDetector(annotation, det.Source, det.Destinations...),
		)
	}
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})
	if *serverPort > 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
		overrides["log.level"] = "debug"
	}
	return overrides
}
