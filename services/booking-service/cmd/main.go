package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/config"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/database"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/handler"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/metrics"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
	"github.com/vasapolrittideah/appointment-booking-api/shared/auth"
	"github.com/vasapolrittideah/appointment-booking-api/shared/logger"
	"github.com/vasapolrittideah/appointment-booking-api/shared/mailer"
	"github.com/vasapolrittideah/appointment-booking-api/shared/provider"
)

const serviceName = "booking-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logger.New("production", "info")
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector := database.NewConnector(cfg.Mongo, log)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	db, err := connector.Database(connectCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	pendingUserRepo := repository.NewPendingUserMongoRepository(ctx, log, db)
	appointmentRepo := repository.NewAppointmentMongoRepository(ctx, log, db)
	passwordResetTokenRepo := repository.NewPasswordResetTokenMongoRepository(ctx, log, db)

	sessionTokens := auth.NewJWTAuthenticator(
		cfg.Token.SessionTokenSecret,
		cfg.Token.Issuer,
		cfg.Token.Audience,
		cfg.Token.SessionTokenExpiresIn,
	)
	resetTokens := auth.NewJWTAuthenticator(
		cfg.Token.PasswordResetTokenSecret,
		cfg.Token.Issuer,
		cfg.Token.Audience,
		cfg.Token.PasswordResetTokenExpiresIn,
	)

	mail := mailer.NewMailer(cfg.SMTP, log)

	location, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load business time zone")
	}

	var oauth usecase.OAuthProvider
	if google, err := provider.NewGoogleOAuthProvider(cfg.Google); err != nil {
		log.Warn().Err(err).Msg("google sign-in is disabled")
	} else {
		oauth = google
	}

	verificationUsecase := usecase.NewVerificationUsecase(log, userRepo, pendingUserRepo, mail, sessionTokens)
	authUsecase := usecase.NewAuthUsecase(log, userRepo, pendingUserRepo, verificationUsecase, sessionTokens, oauth)
	bookingUsecase := usecase.NewBookingUsecase(log, appointmentRepo, location)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		log,
		userRepo,
		passwordResetTokenRepo,
		resetTokens,
		mail,
		cfg.AppPasswordResetURL,
	)

	h := handler.NewHandler(handler.Config{
		Development:    cfg.IsDevelopment(),
		FrontendURL:    cfg.FrontendURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AuthRateLimit:  cfg.RateLimit.AuthRequests,
		AuthRateWindow: cfg.RateLimit.AuthWindow,
	}, handler.Dependencies{
		Logger:               log,
		AuthUsecase:          authUsecase,
		VerificationUsecase:  verificationUsecase,
		BookingUsecase:       bookingUsecase,
		PasswordResetUsecase: passwordResetUsecase,
		Health:               connector,
		Metrics:              metrics.New(prometheus.DefaultRegisterer, serviceName),
		Gatherer:             prometheus.DefaultGatherer,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("environment", cfg.Environment).Msg("booking service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}

	if err := connector.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to disconnect from mongodb")
	}
}
