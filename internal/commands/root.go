package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/yukikurage/group-task-api/internal/config"
	"github.com/yukikurage/group-task-api/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "group-task-api",
	Short: "Group task collaboration API",
	Long: `group-task-api serves the group task collaboration HTTP API and
provides maintenance commands for its database.`,
}

// loadConfig loads configuration and connects to the database, exiting on failure
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return cfg
}

// ExecuteContext runs the root command; ctx is cancelled on shutdown signals
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cleanupCmd)
}
