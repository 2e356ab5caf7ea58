package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/siteaudit/internal/analyzer"
	"github.com/jonesrussell/siteaudit/internal/api"
	"github.com/jonesrussell/siteaudit/internal/config"
	"github.com/jonesrussell/siteaudit/internal/health"
	"github.com/jonesrussell/siteaudit/internal/jobstore"
	"github.com/jonesrussell/siteaudit/internal/logger"
	"github.com/jonesrussell/siteaudit/internal/metrics"
	"github.com/jonesrussell/siteaudit/internal/processor"
)

const (
	errorChannelBufferSize  = 1
	signalChannelBufferSize = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// serveCommand returns the serve command: HTTP API plus worker pool.
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audit API server and job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// runServe wires the service together and runs it until interrupted.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logErr := logger.New(cfg.Logging)
	if logErr != nil {
		return fmt.Errorf("failed to create logger: %w", logErr)
	}

	redisClient, redisErr := jobstore.NewRedisClient(cfg.Redis)
	if redisErr != nil {
		return fmt.Errorf("failed to connect to redis: %w", redisErr)
	}
	defer redisClient.Close()

	store := jobstore.New(redisClient, log)
	m := metrics.New(prometheus.DefaultRegisterer)
	pipeline := analyzer.NewPipeline(log)

	proc := processor.New(store, pipeline, m, log, processor.Config{
		UserAgent:       cfg.Crawler.UserAgent,
		RequestTimeout:  cfg.Crawler.RequestTimeout,
		DefaultMaxPages: cfg.Crawler.MaxPages,
		DefaultMaxDepth: cfg.Crawler.MaxDepth,
		DefaultDelay:    cfg.Crawler.RequestDelay,
	})

	pool, poolErr := processor.NewPool(cfg.Worker.MaxConcurrency, store, proc, log)
	if poolErr != nil {
		return fmt.Errorf("failed to create worker pool: %w", poolErr)
	}

	watchdog, wdErr := processor.NewWatchdog(store, cfg.Worker.StaleAfter, cfg.Worker.WatchdogSchedule, log)
	if wdErr != nil {
		return fmt.Errorf("failed to create watchdog: %w", wdErr)
	}

	checker := health.NewChecker()
	checker.Register("redis", store.Ping)

	audits := api.NewAuditsHandler(store, log)
	router := api.NewRouter(api.ServerConfig{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Debug:        cfg.Server.Debug,
	}, audits, checker, log)

	server := api.NewServer(api.ServerConfig{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, router)

	if startErr := pool.Start(context.Background()); startErr != nil {
		return fmt.Errorf("failed to start worker pool: %w", startErr)
	}
	watchdog.Start()

	log.Info("starting HTTP server", "addr", cfg.Server.Address)
	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return runUntilInterrupt(log, server, pool, watchdog, errChan)
}

// runUntilInterrupt blocks until a shutdown signal or server error.
func runUntilInterrupt(
	log logger.Interface,
	server *http.Server,
	pool *processor.Pool,
	watchdog *processor.Watchdog,
	errChan chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		log.Error("server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdown(log, server, pool, watchdog, sig)
	}
}

// shutdown drains the workers and stops the HTTP server gracefully.
func shutdown(
	log logger.Interface,
	server *http.Server,
	pool *processor.Pool,
	watchdog *processor.Watchdog,
	sig os.Signal,
) error {
	log.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	watchdog.Stop()

	log.Info("stopping worker pool")
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop worker pool", "error", err)
	}

	log.Info("stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
