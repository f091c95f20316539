package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/config"
	"github.com/synesthesie/catalog/internal/handlers"
	"github.com/synesthesie/catalog/internal/logging"
	"github.com/synesthesie/catalog/internal/models"
	"github.com/synesthesie/catalog/internal/services"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg := config.New()
	logging.Setup(cfg)

	app := &cli.Command{
		Name:   "catalog",
		Usage:  "Music catalog API",
		Action: serve(cfg),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: cfg.Port,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run migrations and start the HTTP server",
				Action: serve(cfg),
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrate(cfg),
			},
			{
				Name:   "create-admin",
				Usage:  "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
				Action: createAdmin(cfg),
			},
			{
				Name:   "reconcile",
				Usage:  "Recompute follower and like counters from the membership tables",
				Action: reconcile(cfg),
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := models.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func serve(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if port := cmd.String("port"); port != "" {
			cfg.Port = port
		}

		db, err := openDB(cfg)
		if err != nil {
			return err
		}

		// Initialize Redis
		redisClient := models.InitRedis(cfg)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, rate limiting and logout degraded")
		}

		s3Service, err := services.NewS3Service(cfg)
		if err != nil {
			return fmt.Errorf("failed to init S3 service: %w", err)
		}
		media := services.NewMediaService(cfg, s3Service)

		svc := handlers.Services{
			Auth:     services.NewAuthService(db, redisClient, cfg),
			Users:    services.NewUserService(db, media, cfg),
			Artists:  services.NewArtistService(db, media),
			Albums:   services.NewAlbumService(db, media),
			Songs:    services.NewSongService(db, media),
			Playlist: services.NewPlaylistService(db, media),
			Storage:  services.NewStorageService(cfg),
		}

		// Create admin user if not exists
		if cfg.AdminEmail != "" {
			if err := svc.Auth.CreateDefaultAdmin(ctx); err != nil {
				log.Error().Err(err).Msg("failed to create default admin")
			}
		}

		return run(ctx, cfg, handlers.NewRouter(cfg, redisClient, svc))
	}
}

func run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

func migrate(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if _, err := openDB(cfg); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	}
}

func createAdmin(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		return services.NewAuthService(db, nil, cfg).CreateDefaultAdmin(ctx)
	}
}

func reconcile(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := services.NewMaintenanceService(db).ReconcileCounters(ctx); err != nil {
			return err
		}
		log.Info().Msg("counters reconciled")
		return nil
	}
}
