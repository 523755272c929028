package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akozlenkov/videoqa/internal/bootstrap"
	"github.com/akozlenkov/videoqa/internal/config"
	"github.com/akozlenkov/videoqa/internal/observability/logging"
	"github.com/akozlenkov/videoqa/internal/observability/metrics"
)

const serviceName = "videoqa-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIndexRequested(ctx, func(handlerCtx context.Context, videoID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if idx, statusErr := app.StatusUC.Status(processCtx, videoID); statusErr == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(idx.CreatedAt))
		}

		workerMetrics.StartVideo()
		start := time.Now()
		processErr := app.IndexUC.ProcessVideo(processCtx, videoID)
		workerMetrics.FinishVideo(serviceName, time.Since(start), processErr)
		if processErr == nil {
			if idx, statusErr := app.StatusUC.Status(processCtx, videoID); statusErr == nil {
				workerMetrics.ObserveIndexedChunks(serviceName, idx.NumChunks)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
