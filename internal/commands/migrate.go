package commands

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/yukikurage/group-task-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed priorities",
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()

		if err := database.Migrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	},
}
