package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/config"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/volumedb"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var cfg = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - host-local managed volume metadata store",
	Long: `Burrow tracks externally attached block storage volumes on a
virtualization host: the connection parameters used to attach each
volume, the device path and multipath identity it received, and the
attachment metadata recorded by the attach flow.

State lives in a single crash-durable database file on the host;
concurrent attach/detach flows coordinate through it safely.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}

		// --db overrides the configured path
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			cfg.DBPath = dbPath
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		return nil
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("db", "", "Path to the volume database file")

	// Add subcommands
	rootCmd.AddCommand(createDBCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(ownsMultipathCmd)
	rootCmd.AddCommand(dbVersionCmd)
}

// retryPolicy maps the loaded configuration onto the store's policy.
func retryPolicy() volumedb.RetryPolicy {
	return volumedb.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     time.Duration(cfg.Retry.Backoff),
		MaxBackoff:  time.Duration(cfg.Retry.MaxBackoff),
	}
}

// openDB opens a handle for the duration of one command.
func openDB() (*volumedb.DB, error) {
	db, err := volumedb.OpenWithPolicy(cfg.DBPath, retryPolicy())
	if err != nil {
		return nil, fmt.Errorf("failed to open volume database: %w", err)
	}
	return db, nil
}
