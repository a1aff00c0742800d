package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/objmap/mapcore/internal/config"
	"github.com/objmap/mapcore/internal/database"
	"github.com/objmap/mapcore/internal/radar"
	"github.com/objmap/mapcore/internal/search"
	"github.com/objmap/mapcore/internal/server"
	"github.com/objmap/mapcore/internal/settings"
	"github.com/objmap/mapcore/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configDir *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve map sessions over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configDir)
			if err != nil {
				return err
			}
			defer e.Close()
			if addr == "" {
				addr = config.GetString("server.addr")
			}
			return serve(cmd.Context(), e, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func serve(ctx context.Context, e *env, addr string) error {
	log := e.Logger
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := radar.New(config.GetString("radar.url"), config.GetDuration("radar.timeout"))
	if err := client.Healthcheck(ctx); err != nil {
		log.Warn("Object search service is not reachable", "url", config.GetString("radar.url"), "error", err)
	}

	mapInfo := radar.NewMapInfoStore(config.GetString("data.mapSummary"), client)
	if err := mapInfo.Load(ctx); err != nil {
		return fmt.Errorf("loading map summary: %w", err)
	}

	deps := server.Dependencies{
		Objects: client,
		MapInfo: mapInfo,
		Logger:  log,
	}

	db := database.NewManager(e.ZLog)
	if err := db.Connect(); err != nil {
		log.Error("Database unavailable, settings are kept in memory", "error", err)
	} else if err := db.Setup(); err != nil {
		log.Error("Database setup failed, settings are kept in memory", "error", err)
	} else {
		deps.Settings = settings.NewGormRepository(db.DB)
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close database", "error", err)
			}
		}()
	}

	backupPath := filepath.Join(config.GetString("logsDir"), "searches.lp.gz")
	metrics := telemetry.NewManager(e.ZLog, backupPath)
	switch err := metrics.Connect(ctx); {
	case errors.Is(err, telemetry.ErrDisabled):
		log.Info("Search metrics disabled")
	case err != nil:
		log.Error("Failed to set up search metrics", "error", err)
	default:
		deps.Recorder = metrics
		defer func() {
			if err := metrics.Close(); err != nil {
				log.Warn("Failed to close search metrics", "error", err)
			}
		}()
	}

	searchCfg, err := config.Search()
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Addr:      addr,
		QueueSize: config.GetInt("server.queueSize"),
		Search:    search.Config{Debounce: searchCfg.Debounce, MaxResults: searchCfg.MaxResults},
	}, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
