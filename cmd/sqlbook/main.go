// Command sqlbook runs the connection manager server and talks to it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willibrandon/sqlbook/internal/config"
	"github.com/willibrandon/sqlbook/internal/ipc"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	configPath string
	debug      bool
	socketPath string
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqlbook",
		Short: "SQL connection manager for MySQL and PostgreSQL",
		Long: `sqlbook keeps a list of saved MySQL and PostgreSQL connections and runs
queries against them. One server process owns every live connection and
executes commands one at a time; the other subcommands talk to it over a
local socket.

  sqlbook serve                          Run the server in the foreground
  sqlbook conn add --name N --uri U      Save and connect a new connection
  sqlbook conn list                      List saved connections
  sqlbook query <id> <sql>               Run a query
  sqlbook history <id>                   Show recent queries for a connection`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.sqlbook/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "IPC socket path (default from config)")

	rootCmd.AddCommand(
		newServeCmd(),
		newConnCmd(),
		newQueryCmd(),
		newHistoryCmd(),
		newStatusCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// loadConfig loads --config if given, otherwise the default locations.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFromPath(configPath)
	}
	return config.LoadConfig()
}

// resolveSocket returns --socket, the configured socket, or the default.
func resolveSocket() string {
	if socketPath != "" {
		return socketPath
	}
	cfg, err := loadConfig()
	if err != nil {
		return config.DefaultSocketPath()
	}
	return cfg.IPC.SocketPath
}

// withClient connects to the server and runs fn. Interrupting the command
// cancels ctx and abandons the call.
func withClient(ctx context.Context, fn func(ctx context.Context, c *ipc.Client) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := ipc.NewClient(resolveSocket())
	if err != nil {
		return fmt.Errorf("%w\n\nIs the server running? Start it with: sqlbook serve", err)
	}
	defer client.Close()
	return fn(ctx, client)
}
