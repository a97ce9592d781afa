package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/modoterra/watchpost/internal/buildinfo"
	"github.com/modoterra/watchpost/pkg/backend"
	"github.com/modoterra/watchpost/pkg/config"
	"github.com/modoterra/watchpost/pkg/core"
	"github.com/modoterra/watchpost/pkg/metrics"
	"github.com/modoterra/watchpost/pkg/sched"
	"github.com/modoterra/watchpost/pkg/service"
	"github.com/modoterra/watchpost/pkg/ship"
	"github.com/modoterra/watchpost/pkg/tail"
)

func main() {
	configPath := pflag.String("config", "/etc/watchpost/watchpost.yaml", "path to the agent configuration file")
	showVersion := pflag.Bool("version", false, "print version and exit")
	installService := pflag.Bool("install-service", false, "install and start the systemd service, then exit")
	uninstallService := pflag.Bool("uninstall-service", false, "stop and remove the systemd service, then exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("watchpostd %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *installService || *uninstallService {
		var err error
		if *installService {
			err = service.Install(*configPath)
		} else {
			err = service.Uninstall()
		}
		if err != nil {
			logger.Error("service management", "err", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("agent error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("config validation", "err", e)
		}
		return fmt.Errorf("invalid configuration: %d error(s)", len(errs))
	}

	instanceID := resolveInstanceID(cfg, logger)
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("resolve hostname: %w", err)
	}

	client := backend.NewHTTPClient(cfg.Endpoint, cfg.APIKey)
	if err := backend.WithRetry(ctx, func() error {
		return client.RefreshSession(ctx)
	}); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	// Log pipeline: one tailer and one queue per resolved source, all
	// feeding the shipper.
	journal := cfg.CollectJournal
	if journal && !tail.JournalAvailable() {
		logger.Warn("journal collection enabled but no journal detected; skipping journal source")
		journal = false
	}
	sources := core.ResolveSources(cfg.LogFiles, journal)
	if dropped := len(cfg.LogFiles) + boolToInt(journal) - len(sources); dropped > 0 {
		logger.Warn("too many log sources configured", "dropped", dropped, "cap", core.MaxSources)
	}

	group := cfg.GroupName(instanceID)
	logShipper := ship.NewShipper(client, group, logger)
	for _, source := range sources {
		queue := core.NewEventQueue(0)
		logShipper.Register(source, queue)
		tail.Start(ctx, source, queue, logger)
	}
	if err := logShipper.Setup(ctx); err != nil {
		return err
	}

	// Metric pipeline: seed the relative counters before the first
	// scheduled tick, then attach the fixed dimensions.
	metricsInterval := time.Duration(cfg.MetricsCollectionInterval) * time.Second
	table := metrics.NewTable(metricsInterval)
	sampler := metrics.NewSampler(table, logger)
	sampler.Seed(ctx)
	table.SetDimensions(map[string]string{
		"InstanceId": instanceID,
		"Hostname":   hostname,
	})
	metricShipper := metrics.NewShipper(table, client, cfg.Namespace, logger)

	scheduler := sched.New(logger)
	scheduler.Add(sched.Job{
		Name:     "credential-refresh",
		Interval: time.Duration(cfg.CredentialRefreshInterval) * time.Second,
		Action:   client.RefreshSession,
	})
	scheduler.Add(sched.Job{
		Name:     "metrics",
		Interval: metricsInterval,
		Action: func(ctx context.Context) error {
			sampler.Sample(ctx)
			return metricShipper.Publish(ctx)
		},
	})
	scheduler.Add(sched.Job{
		Name:     "logs",
		Interval: time.Duration(cfg.LogsCollectionInterval) * time.Second,
		Action:   logShipper.Ship,
	})

	logger.Info("starting watchpostd",
		"version", buildinfo.Version,
		"instance", instanceID,
		"sources", len(sources),
		"group", group,
	)
	sddaemon.SdNotify(false, sddaemon.SdNotifyReady)

	scheduler.Run(ctx)
	return nil
}

// resolveInstanceID prefers the configured identifier; without one the
// agent generates an id for this process lifetime only.
func resolveInstanceID(cfg *config.Config, logger *slog.Logger) string {
	if cfg.InstanceID != "" {
		return cfg.InstanceID
	}
	id := uuid.NewString()
	logger.Warn("no instance_id configured, generated an ephemeral one", "instance", id)
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
