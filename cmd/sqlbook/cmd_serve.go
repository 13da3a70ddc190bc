package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willibrandon/sqlbook/internal/db"
	"github.com/willibrandon/sqlbook/internal/ipc"
	"github.com/willibrandon/sqlbook/internal/logger"
	"github.com/willibrandon/sqlbook/internal/manager"
	"github.com/willibrandon/sqlbook/internal/metrics"
	"github.com/willibrandon/sqlbook/internal/storage/jsonfile"
	"github.com/willibrandon/sqlbook/internal/storage/sqlite"
)

// newServeCmd creates the serve subcommand
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the connection manager in the foreground",
		Long: `Run the connection manager and serve commands on the IPC socket until
interrupted. Saved connections are restored from the connections file and
dialed on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	debugMode := debug || cfg.Debug
	if err := logger.Init(logger.Options{Path: cfg.Log.File, Debug: debugMode}); err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	defer logger.Close()
	if debugMode {
		fmt.Fprintf(os.Stderr, "Debug mode: Logs written to %s\n", logger.Path())
	}
	logger.Info("sqlbook starting", "version", version, "config", configPath)

	var history manager.HistoryRecorder
	if cfg.History.Enabled {
		historyDB, err := sqlite.Open(ctx, cfg.Storage.HistoryFile)
		if err != nil {
			// History is optional; keep serving without it.
			logger.Warn("Query history disabled", "path", cfg.Storage.HistoryFile, "error", err)
		} else {
			defer historyDB.Close()
			history = sqlite.NewHistoryStore(historyDB, cfg.History.MaxEntries)
		}
	}

	registry := db.DefaultRegistry(cfg.Manager.ConnectTimeout)
	stats := metrics.NewQueryStats(metrics.DefaultBufferCapacity)
	mgr, err := manager.New(manager.Options{
		Connector: registry,
		Persister: jsonfile.NewStore(cfg.Storage.ConnectionsFile),
		History:   history,
		Observer:  stats,
		QueueSize: cfg.Manager.QueueSize,
		RowLimit:  cfg.Manager.RowLimit,
	})
	if err != nil {
		return fmt.Errorf("error creating connection manager: %w", err)
	}
	defer mgr.Close()

	path := cfg.IPC.SocketPath
	if socketPath != "" {
		path = socketPath
	}
	server, err := ipc.NewServer(path)
	if err != nil {
		return fmt.Errorf("error starting IPC server: %w", err)
	}
	ipc.NewHandlers(mgr, stats, version, server.Path(), registry.Kinds()).RegisterAll(server)

	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("sqlbook %s listening on %s\n", version, server.Path())

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	if err := server.Stop(); err != nil {
		logger.Warn("IPC server stop failed", "error", err)
	}
	return nil
}
