package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powertac/simviewer/internal/config"
	"github.com/powertac/simviewer/internal/connection"
	"github.com/powertac/simviewer/internal/database"
	"github.com/powertac/simviewer/internal/model"
	"github.com/powertac/simviewer/internal/state"
	"github.com/powertac/simviewer/internal/version"
	"github.com/powertac/simviewer/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/viewer.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting viewer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"server_url", cfg.Server.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the archive database when enabled
	var pool *pgxpool.Pool
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"port", cfg.Archive.Database.Port,
			"database", cfg.Archive.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Archive.Database)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		logger.Info("archive database connected")
	}

	// Create the connector
	connCfg := connection.DefaultConnectorConfig()
	connCfg.URL = cfg.Server.URL
	connCfg.Topic = cfg.Server.Topic
	if cfg.Server.ClientID != "" {
		connCfg.ClientID = cfg.Server.ClientID
	}
	connCfg.ReconnectBaseWait = cfg.Server.ReconnectBaseDelay
	connCfg.ReconnectMaxWait = cfg.Server.ReconnectMaxDelay
	connCfg.PingTimeout = cfg.Server.PingTimeout
	connCfg.WriteTimeout = cfg.Server.WriteTimeout
	connCfg.MessageBufferSize = cfg.Server.MessageBufferSize

	connector := connection.NewConnector(connCfg, logger)

	// Create and start the reconciliation engine
	engineCfg := state.Config{
		BacklogLimit: cfg.Engine.BacklogLimit,
		EventBuffer:  cfg.Engine.EventBuffer,
	}
	engine := state.NewReconciler(engineCfg, connector.Messages(), connector.Status(), logger)

	logger.Info("starting reconciliation engine...")
	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start reconciliation engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		engine.Stop(shutdownCtx)
	}()
	logger.Info("reconciliation engine started")

	// Start the tick archive BEFORE the connector so no tick is missed
	if cfg.Archive.Enabled {
		archiveCfg := writer.ArchiveConfig{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}
		if archiveCfg.BatchSize == 0 {
			archiveCfg.BatchSize = 100
		}
		if archiveCfg.FlushInterval == 0 {
			archiveCfg.FlushInterval = time.Second
		}

		archive := writer.NewTickArchive(archiveCfg, engine.Subscribe("tick-archive"), pool, logger)

		logger.Info("starting tick archive...")
		if err := archive.Start(ctx); err != nil {
			logger.Error("failed to start tick archive", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			archive.Stop(shutdownCtx)
		}()
		logger.Info("tick archive started")
	}

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg, pool, engine, connector, logger),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the connector last; the engine is already consuming
	logger.Info("starting connector...")
	if err := connector.Start(ctx); err != nil {
		logger.Error("failed to start connector", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		connector.Stop(shutdownCtx)
	}()

	logger.Info("viewer running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	// Graceful shutdown of health server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("viewer stopped")
}

// createHealthHandler creates the HTTP handler for health and debug endpoints.
func createHealthHandler(cfg *config.ViewerConfig, pool *pgxpool.Pool, engine *state.Reconciler, connector *connection.Connector, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(cfg.Health.Path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check connector
		connStats := connector.Stats()
		if connStats.Connected {
			health.Components["connector"] = "connected"
		} else {
			health.Status = "degraded"
			health.Components["connector"] = map[string]interface{}{
				"status":     "disconnected",
				"reconnects": connStats.Reconnects,
			}
		}

		// Check archive database
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["archive_db"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["archive_db"] = "connected"
			}
		}

		// Engine progress
		engineStats := engine.Stats()
		health.Components["engine"] = map[string]interface{}{
			"ticks_applied": engineStats.TicksApplied,
			"queued":        engineStats.Queued,
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/state", func(w http.ResponseWriter, r *http.Request) {
		type brokerSummary struct {
			ID   int64   `json:"id"`
			Name string  `json:"name"`
			Cash float64 `json:"cash"`
		}

		summary := struct {
			Game         string          `json:"game"`
			Status       string          `json:"status"`
			Severity     string          `json:"severity"`
			Timeslots    int             `json:"timeslots"`
			LastTimeSlot int             `json:"last_time_slot"`
			Brokers      []brokerSummary `json:"brokers"`
			Customers    int             `json:"customers"`
			AggCustomers int             `json:"aggregate_customers"`
		}{}

		engine.View(func(snap *model.Snapshot) {
			summary.Game = snap.GameName
			summary.Status = string(snap.GameStatus)
			summary.Severity = string(snap.StatusSeverity)
			summary.Timeslots = len(snap.TimeInstances)
			summary.LastTimeSlot = snap.LastTimeSlot
			for _, id := range snap.BrokerOrder {
				b := snap.Brokers[id]
				summary.Brokers = append(summary.Brokers, brokerSummary{
					ID:   b.ID,
					Name: b.Name,
					Cash: b.Cash,
				})
			}
			summary.Customers = len(snap.Customers)
			summary.AggCustomers = len(snap.AggCustomers)
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"state":     summary,
			"engine":    engine.Stats(),
			"connector": connector.Stats(),
		})
	})

	return mux
}
