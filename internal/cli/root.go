// Package cli provides the command-line interface for threatwatch.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daedalus-s/threat-gdg-adk/internal/config"
	"github.com/daedalus-s/threat-gdg-adk/internal/db"
	"github.com/daedalus-s/threat-gdg-adk/internal/embedding"
	"github.com/daedalus-s/threat-gdg-adk/internal/metrics"
	"github.com/daedalus-s/threat-gdg-adk/internal/query"
	"github.com/daedalus-s/threat-gdg-adk/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configFile string
	verbose    bool

	// Global config, logger, and db client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	dbClient   *db.Client
	collector  *metrics.Collector

	// Lazy-initialized embedder
	embedder embedding.Embedder
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "threatwatch",
	Short: "Temporal threat-event store and query engine",
	Long: `Threatwatch stores per-frame threat observations from surveillance
cameras in a vector index and answers natural-language questions about
them: exact time-window queries, semantic search, and per-camera threat
timelines.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if configFile != "" {
			var err error
			cfg, err = config.LoadFile(cfg, configFile)
			if err != nil {
				return err
			}
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		collector = metrics.NewCollector()

		// Connect to database
		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// getServices builds the ingest and query services. Commands that need
// embeddings pass requireEmbedder=true; timeline and stats work without
// a provider.
func getServices(requireEmbedder bool) (*service.IngestService, *service.QueryService, error) {
	if requireEmbedder && embedder == nil {
		var err error
		embedder, err = embedding.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create embedder: %w", err)
		}
		if embedder.Dimension() != cfg.EmbedDimension {
			return nil, nil, fmt.Errorf("embedder dimension %d does not match configured dimension %d",
				embedder.Dimension(), cfg.EmbedDimension)
		}
	}

	interp := query.NewInterpreter(cfg.AssumedDurationSecs)
	ingestSvc := service.NewIngestService(dbClient, embedder, logger, collector)
	querySvc := service.NewQueryService(dbClient, embedder, interp, logger, collector)
	return ingestSvc, querySvc, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deleteSessionCmd)
}
