package commands

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/group-task-api/internal/config"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/database"
	"github.com/yukikurage/group-task-api/internal/handlers"
	"github.com/yukikurage/group-task-api/internal/services"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := cmd.Context()

		// Set Gin mode
		gin.SetMode(cfg.GinMode)

		if !skipMigrate {
			if err := database.Migrate(); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		defer a.Close()

		scheduler := services.NewSchedulerService(time.Local)
		if cfg.CleanupSchedule != "" {
			if _, err := scheduler.ScheduleResetTokenPurge(cfg.CleanupSchedule, a.Auth); err != nil {
				log.Fatalf("Invalid cleanup schedule %q: %v", cfg.CleanupSchedule, err)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()

		r := gin.Default()

		store, err := newSessionStore(cfg)
		if err != nil {
			log.Fatalf("Failed to create session store: %v", err)
		}
		// Configure session options based on environment
		store.Options(sessions.Options{
			Path:     "/api/auth",
			MaxAge:   int(cfg.RefreshTokenTTL().Seconds()),
			HttpOnly: true,
			Secure:   cfg.GinMode == gin.ReleaseMode,
			SameSite: http.SameSiteLaxMode,
		})
		r.Use(sessions.Sessions(constants.SessionCookieName, store))

		handlers.RegisterRoutes(r, a.Handlers, a.Issuer)

		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: r,
		}

		go func() {
			log.Printf("Server starting on :%s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	},
}

// newSessionStore keeps sessions in Redis when it is the cache, otherwise in
// signed cookies.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.CacheDriver == "memory" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}
	return redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret), // authentication key
	)
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
}
