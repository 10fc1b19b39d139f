// Command sentinel runs the adaptive scene-monitoring service: the
// camera polling worker, the alerting pipeline, and the REST/WebSocket
// surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moneshrallapalli/sentinel/internal/alerting"
	"github.com/moneshrallapalli/sentinel/internal/api"
	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/datastore"
	"github.com/moneshrallapalli/sentinel/internal/datastore/repository"
	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/metrics"
	"github.com/moneshrallapalli/sentinel/internal/monitor"
	"github.com/moneshrallapalli/sentinel/internal/mqtt"
	"github.com/moneshrallapalli/sentinel/internal/notification"
	"github.com/moneshrallapalli/sentinel/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Adaptive scene monitoring and event alerting",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring worker and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := conf.Load(configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), settings)
		},
	}
	root.AddCommand(serve)

	return root
}

func runServe(ctx context.Context, settings *conf.Settings) error {
	log := logger.NewSlogLogger(os.Stderr, logger.ParseLevel(settings.Main.LogLevel), nil)

	if settings.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: settings.Sentry.DSN}); err != nil {
			log.Warn("sentry init failed, continuing without it", logger.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var pushURLs []string
	if settings.Push.Enabled {
		pushURLs = settings.Push.URLs
	}
	notification.Initialize(&notification.ServiceConfig{PushURLs: pushURLs}, log, m)
	notifier := notification.MustGetService()

	db, err := datastore.Open(settings.Datastore)
	if err != nil {
		return err
	}
	var stores pipeline.Stores
	var apiDeps api.Deps
	if db != nil {
		stores = pipeline.Stores{
			Alerts: repository.NewAlertRepository(db),
			Events: repository.NewEventRepository(db),
			Tasks:  repository.NewTaskRepository(db),
		}
		apiDeps.AlertRepo = stores.Alerts
		apiDeps.EventRepo = stores.Events
		apiDeps.TaskRepo = stores.Tasks
	}

	registry := monitor.NewRegistry()
	baselines := monitor.NewBaselineTracker()

	keywords := settings.Monitor.DangerousKeywords
	if len(keywords) == 0 {
		keywords = conf.DefaultDangerousKeywords()
	}
	fuser := alerting.NewFuser(alerting.NewDangerScanner(keywords), alerting.FuserConfig{
		BoostFloor:  settings.Monitor.Fusion.BoostFloor,
		BoostMid:    settings.Monitor.Fusion.BoostMid,
		BoostHigher: settings.Monitor.Fusion.BoostHigher,
		BoostStrong: settings.Monitor.Fusion.BoostStrong,
	})
	classifier := alerting.NewClassifier(alerting.ClassifierConfig{
		ActivityThreshold: settings.Monitor.ActivityThreshold,
		ObjectThreshold:   settings.Monitor.ObjectThreshold,
		GeneralThreshold:  settings.Monitor.GeneralThreshold,
		SummaryFloor:      settings.Monitor.SummaryFloor,
	})
	aggregator := alerting.NewAggregator(settings.Monitor.WindowDuration.Std())

	client := pipeline.NewHTTPClient(settings.Perception)
	var verifier pipeline.Verifier
	if settings.Perception.VerifyEndpoint != "" {
		verifier = client
	}

	var sink pipeline.AlertSink
	if settings.MQTT.Enabled {
		publisher, err := mqtt.NewPublisher(settings.MQTT, log)
		if err != nil {
			log.Warn("mqtt unavailable, alerts will not be published to the broker",
				logger.Error(err))
		} else {
			defer publisher.Close()
			sink = publisher
		}
	}

	worker := pipeline.NewWorker(pipeline.Config{
		Cameras:      settings.Monitor.Cameras,
		Cadence:      settings.Monitor.Cadence(),
		HistoryDepth: settings.Monitor.HistoryDepth,
		VerifyDepth:  settings.Monitor.VerifyDepth,
	}, pipeline.Deps{
		Source:     client,
		Verifier:   verifier,
		Registry:   registry,
		Baselines:  baselines,
		Fuser:      fuser,
		Classifier: classifier,
		Aggregator: aggregator,
		Notifier:   notifier,
		Sink:       sink,
		Stores:     stores,
		Metrics:    m,
		Log:        log,
	})

	e := echo.New()
	e.HideBanner = true
	apiDeps.Settings = settings
	apiDeps.Log = log
	apiDeps.Registry = registry
	apiDeps.Baselines = baselines
	apiDeps.Notifier = notifier
	apiDeps.Interpreter = client
	api.New(e, apiDeps)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	addr := fmt.Sprintf("%s:%d", settings.HTTP.Host, settings.HTTP.Port)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
