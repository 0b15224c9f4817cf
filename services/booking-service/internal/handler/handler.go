package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/metrics"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

// HealthChecker reports whether a backing store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config controls the HTTP surface.
type Config struct {
	Development    bool
	FrontendURL    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Dependencies are the collaborators a Handler serves requests with.
type Dependencies struct {
	Logger               *zerolog.Logger
	AuthUsecase          usecase.AuthUsecase
	VerificationUsecase  usecase.VerificationUsecase
	BookingUsecase       usecase.BookingUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	Health               HealthChecker
	Metrics              *metrics.Metrics
	Gatherer             prometheus.Gatherer
}

// Handler serves the booking service's REST API.
type Handler struct {
	logger               *zerolog.Logger
	authUsecase          usecase.AuthUsecase
	verificationUsecase  usecase.VerificationUsecase
	bookingUsecase       usecase.BookingUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	health               HealthChecker
	metrics              *metrics.Metrics
	gatherer             prometheus.Gatherer
	validator            *requestValidator
	config               Config
	now                  func() time.Time
}

func NewHandler(cfg Config, deps Dependencies) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}
	if cfg.AuthRateWindow <= 0 {
		cfg.AuthRateWindow = time.Minute
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	return &Handler{
		logger:               deps.Logger,
		authUsecase:          deps.AuthUsecase,
		verificationUsecase:  deps.VerificationUsecase,
		bookingUsecase:       deps.BookingUsecase,
		passwordResetUsecase: deps.PasswordResetUsecase,
		health:               deps.Health,
		metrics:              deps.Metrics,
		gatherer:             deps.Gatherer,
		validator:            newRequestValidator(),
		config:               cfg,
		now:                  time.Now,
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.recordMetrics)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "Cache-Control", "Pragma",
		},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/api/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.config.RequestTimeout))

		r.Route("/api/auth", h.authRoutes)
		r.Route("/auth", h.authRoutes)
		r.Route("/api/appointments", h.appointmentRoutes)
	})

	return r
}

func (h *Handler) authRoutes(r chi.Router) {
	r.Use(middleware.NoCache)
	r.Use(httprate.LimitByIP(h.config.AuthRateLimit, h.config.AuthRateWindow))

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/verify", h.Verify)

	r.Get("/google", h.GoogleRedirect)
	r.Get("/google/callback", h.GoogleCallbackRedirect)
	r.Post("/google/callback", h.GoogleCallback)

	r.Post("/send-otp", h.SendOTP)
	r.Post("/verify-otp", h.VerifyOTP)

	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/reset-password/validate", h.ValidatePasswordResetToken)
	r.Post("/reset-password", h.ResetPassword)
}

func (h *Handler) appointmentRoutes(r chi.Router) {
	r.Get("/available", h.Availability)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/book", h.Book)
		r.Get("/my-appointments", h.MyAppointments)
		r.Put("/{appointmentID}/cancel", h.Cancel)
		r.Get("/admin/all", h.AllAppointments)
	})
}

// allowedOrigins is the frontend, the local development servers and any configured extras.
func (h *Handler) allowedOrigins() []string {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:5174",
		"http://localhost:5175",
	}
	if h.config.FrontendURL != "" {
		origins = append(origins, h.config.FrontendURL)
	}

	return append(origins, h.config.AllowedOrigins...)
}
