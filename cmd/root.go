package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evinventory/internal/config"
	"evinventory/internal/core/container"
	"evinventory/internal/core/logger"
	"evinventory/internal/core/routes"
	"evinventory/internal/database"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/middleware"
	"evinventory/internal/notifications"
	"evinventory/internal/rate_limiter"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations manually.",
	Long:  `Applies every pending migration from the migrations directory, or rolls back the last N with --down.`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		cfg := config.Load()
		log := logger.NewLogger(cfg.Environment)
		defer log.Sync()

		migrationDir, _ := cmd.Flags().GetString("dir")
		if migrationDir == "" {
			migrationDir = cfg.MigrationsDir
		}

		down, _ := cmd.Flags().GetInt("down")
		if down > 0 {
			err = database.RollbackMigrations(cfg.DatabaseURL, migrationDir, down, log)
		} else {
			err = database.RunMigrations(cfg.DatabaseURL, migrationDir, true, log)
		}
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		return nil
	},
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inventory HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), config.Load(), migrate)
	},
}

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed token for local testing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		role, _ := cmd.Flags().GetString("role")
		if !roles.Role(role).IsValid() {
			return fmt.Errorf("unknown role %q", role)
		}
		identity := models.Identity{UserID: uuid.New(), RoleName: role}
		for flag, target := range map[string]**uuid.UUID{
			"service-center": &identity.ServiceCenterID,
			"company":        &identity.CompanyID,
		} {
			raw, _ := cmd.Flags().GetString(flag)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flag, err)
			}
			*target = &id
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := security.NewJWT(cfg.JWTSecret).GenerateJWT(identity, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	log := logger.NewLogger(cfg.Environment)
	defer log.Sync()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to the database")

	if migrate {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, false, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	dispatcher, closer, err := notifications.New(ctx, cfg, log.Named("notifications"))
	if err != nil {
		return err
	}
	defer closer.Close()

	runner := effects.NewDetached(log.Named("effects"), cfg.SideEffectTimeout)
	app := container.NewAppContainer(db, dispatcher, runner, log)

	done := make(chan struct{})
	defer close(done)
	limiter := rate_limiter.NewRateLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow)
	limiter.StartCleanup(cfg.WriteRateWindow, done)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestLogger(log.Named("http")),
		middleware.TimeoutMiddleware(cfg.RequestTimeout),
	)
	routes.RegisterUtilityRoutes(router, middleware.NewHealthChecker(db, version))
	routes.RegisterProtectedRoutes(router, app, security.NewJWT(cfg.JWTSecret), limiter)

	server := &http.Server{
		Addr:              cfg.AppHost,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.AppHost), zap.String("version", version))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown", zap.Error(err))
	}
	runner.Wait()
	return nil
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "evinventory",
		Short: "EV service-center inventory and stock-transfer service",
	}
	MigrateCmd.Flags().String("dir", "", "Directory containing the migration files (defaults to MIGRATIONS_DIR)")
	MigrateCmd.Flags().Int("down", 0, "Roll back this many migrations instead of applying")
	ServeCmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	TokenCmd.Flags().String("role", string(roles.Admin), "Role name carried by the token")
	TokenCmd.Flags().String("service-center", "", "Service center id for service-center roles")
	TokenCmd.Flags().String("company", "", "Company id for company roles")
	TokenCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	rootCmd.AddCommand(ServeCmd, MigrateCmd, TokenCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
