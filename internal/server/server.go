package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"beauty-booking/internal/config"
	"beauty-booking/internal/database"
	"beauty-booking/internal/logger"
	"beauty-booking/internal/metrics"
	custommiddleware "beauty-booking/internal/middleware"
	"beauty-booking/internal/repository"
	"beauty-booking/internal/service"
	"beauty-booking/internal/store"
	"beauty-booking/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// commitDrainTimeout bounds how long Close waits for settled commits
const commitDrainTimeout = 10 * time.Second

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       database.Service
	redis    *redis.Client
	checkout service.CheckoutService
}

func NewServer(cfg *config.Config, log *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBooking(registry)

	// Initialize repositories
	kv := store.NewRedisStore(redisClient)
	reservationRepo := repository.NewReservationRepository(repository.NewCollectionStore(kv, log), log)
	draftRepo := repository.NewDraftRepository(kv, cfg.Booking.DraftTTL, log)
	serviceRepo := repository.NewServiceRepository(db.DB())
	providerRepo := repository.NewProviderRepository(db.DB())
	notificationRepo := repository.NewNotificationRepository(db.DB())

	// Initialize services
	catalogService := service.NewCatalogService(serviceRepo, providerRepo, cfg.Catalog.CacheTTL, logger.Component(log, "catalog"))
	notificationService := service.NewNotificationService(notificationRepo, logger.Component(log, "notifications"))
	checkoutService := service.NewCheckoutService(cfg.Booking, service.CheckoutDeps{
		Catalog:       catalogService,
		Drafts:        draftRepo,
		Reservations:  reservationRepo,
		Settler:       service.NewSimulatedSettler(logger.Component(log, "settlement")),
		Notifications: notificationService,
		Metrics:       bookingMetrics,
		Logger:        log,
	})

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, logger.Component(log, "catalog_http"))
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, logger.Component(log, "checkout_http"))
	reservationHandler := transport.NewReservationHandler(reservationRepo, bookingMetrics, logger.Component(log, "reservations_http"))
	notificationHandler := transport.NewNotificationHandler(notificationService, logger.Component(log, "notifications_http"))

	s := &Server{
		config:   cfg,
		logger:   log,
		db:       db,
		redis:    redisClient,
		checkout: checkoutService,
	}

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(log))
	router.Use(custommiddleware.LoggingMiddleware(logger.Component(log, "http")))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS, cfg.IsDevelopment()))

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Public catalog
	catalogHandler.RegisterRoutes(router)

	sessionMiddleware := custommiddleware.SessionMiddleware(cfg.JWT.Secret, cfg.Booking.LoginPath, log)
	submitLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.CheckoutRateLimit(cfg.RateLimit), log)

	// Session routes
	router.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		checkoutHandler.RegisterRoutes(r, submitLimiter)
		reservationHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
	})

	// Admin routes
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Use(custommiddleware.RequireAdmin(log))
		reservationHandler.RegisterAdminRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbHealth := s.db.Health()
	status := http.StatusOK

	redisStatus := "up"
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Redis health check failed", zap.Error(err))
		redisStatus = "down"
		status = http.StatusServiceUnavailable
	}
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"database": dbHealth,
		"redis":    redisStatus,
	}
	if pending, err := database.PendingMigrations(ctx, s.db.DB(), s.config.Database.MigrationsDir); err == nil {
		body["pending_migrations"] = pending
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Drop pending settlements and let running commits finish before the stores go away
	ctx, cancel := context.WithTimeout(context.Background(), commitDrainTimeout)
	if err := s.checkout.Shutdown(ctx); err != nil {
		s.logger.Error("Checkout did not drain", zap.Error(err))
	}
	cancel()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
