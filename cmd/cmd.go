package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nexus-admin-backend/internal/config"
	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/repository"
	"nexus-admin-backend/internal/seed"
	"nexus-admin-backend/internal/services"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func Run() {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	app := newApp(cfg, time.Now)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.router(cfg),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		app.hub.CloseAll()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Server exited")
}

// app holds the wired console components
type app struct {
	session *services.SessionGate
	coord   *services.Coordinator
	hub     *services.WSHub
}

func newApp(cfg *config.Config, clock func() time.Time) *app {
	// Initialize repositories
	userRepo := repository.NewUserRepository()
	var paymentRepo *repository.PaymentRepository
	if cfg.SeedEnabled() {
		for _, u := range seed.Users() {
			userRepo.Save(u)
		}
		paymentRepo = repository.NewPaymentRepository(seed.Payments()...)
		log.Info().
			Int("users", userRepo.Count()).
			Int("pending_payments", paymentRepo.CountByStatus(models.StatusPending)).
			Msg("Demo data loaded")
	} else {
		paymentRepo = repository.NewPaymentRepository()
	}

	// Initialize services
	session := services.NewSessionGate(cfg.Session.Secret, cfg.Session.TTL(), clock)
	hub := services.NewWSHub()
	coord := services.NewCoordinator(
		session,
		services.NewUserService(userRepo),
		services.NewPaymentService(paymentRepo),
		services.NewReceiptReader(cfg.Receipts.MaxBytes, cfg.Receipts.AllowedTypes),
		hub,
		clock,
	)

	return &app{
		session: session,
		coord:   coord,
		hub:     hub,
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
