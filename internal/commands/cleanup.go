package commands

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/repository"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete password reset tokens past the retention window",
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()

		resetRepo := repository.NewPasswordResetRepository(database.GetDB())
		cutoff := time.Now().Add(-constants.PasswordResetRetention)

		removed, err := resetRepo.DeleteExpired(cmd.Context(), cutoff)
		if err != nil {
			log.Fatalf("Failed to purge reset tokens: %v", err)
		}
		fmt.Printf("Removed %d password reset tokens\n", removed)
	},
}
