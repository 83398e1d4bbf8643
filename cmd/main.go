package main

import (
	"context"
	"dm-relay/contract"
	"dm-relay/errors"
	"dm-relay/internal"
	"dm-relay/moderation"
	"dm-relay/observability"
	"dm-relay/repositories"
	"dm-relay/runtime"
	"dm-relay/runtime/workers"
	"dm-relay/websocket"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every defer on the exit path, main only reports the error.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Conversation store
	store, cleanup, err := openStore(config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. Optional moderation
	var filter contract.ContentFilter
	if config.EnableModeration {
		moderator, err := newModerator(config, log)
		if err != nil {
			return err
		}
		filter = moderator
	}

	// 4. Coordinator behind the single dispatch queue
	registry := runtime.NewRegistry()
	hub := websocket.NewHub(log)
	coordinator := runtime.NewCoordinator(log, registry, store, hub, filter, config.MaxContentLength)
	dispatcher := workers.NewDispatchWorker(coordinator, config.BufferSize, log)
	monitor := observability.NewMonitor(log, registry, store, dispatcher.Pending)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gauges := []workers.NamedGauge{{Name: "dispatch", Gauge: dispatcher}}
	sup := workers.NewSupervisor(log, config.RestartInterval).
		Add(dispatcher,
			workers.NewHealthMonitoringWorker(log, monitor, config.MetricInterval),
			workers.NewChannelCapacityWorker(log, gauges, config.LowCapacityThreshold, config.MetricInterval))
	if config.HealthPort > 0 {
		sup.Add(observability.NewHealthServer(log, config.Host, config.HealthPort))
	}
	workersCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	go func() {
		sup.Run(workersCtx)
		close(workersDone)
	}()
	// The store is closed by a deferred cleanup, so workers must be gone first.
	defer func() {
		stopWorkers()
		<-workersDone
	}()

	// 5. HTTP server
	origins := config.Origins()
	socket := websocket.NewServer(ctx, hub, dispatcher, origins, config.ConnectionBufferSize, config.FrameLimit(), log)
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           internal.NewRouter(log, origins, socket.HandleWebSocket, monitor),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", server.Addr, "store", config.StoreBackend, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	// Shutdown does not touch hijacked connections, closing the sinks ends each session.
	hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

func openStore(config internal.Config, log *slog.Logger) (contract.IConversationStore, func(), error) {
	switch config.StoreBackend {
	case internal.StoreMemory:
		store := repositories.NewMemoryConversationStore(log, config.LimitMessages)
		return store, func() { _ = store.Close() }, nil
	case internal.StoreBadger:
		db, err := repositories.OpenInMemoryBadger()
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		store, err := repositories.NewBadgerConversationStore(db, log, config.MessageTTL)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() {
			log.Info("Closing BadgerDB...")
			_ = store.Close()
			_ = db.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", errors.ErrUnknownStore, config.StoreBackend)
	}
}

func newModerator(config internal.Config, log *slog.Logger) (*moderation.Moderator, error) {
	censorChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := runtime.NewCensoredLoader(runtime.CensoredFolder).LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("censored dictionaries: %w", err)
	}
	log.Info("Moderation enabled", "words", len(data.Words), "languages", data.Languages)
	return moderation.NewModerator(data.Words, censorChar, log)
}
