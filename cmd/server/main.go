package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/access"
	"github.com/folio/testimonial-relay/internal/config"
	"github.com/folio/testimonial-relay/internal/database"
	"github.com/folio/testimonial-relay/internal/gotrue"
	"github.com/folio/testimonial-relay/internal/handler"
	"github.com/folio/testimonial-relay/internal/jobs"
	"github.com/folio/testimonial-relay/internal/mail"
	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/middleware"
	"github.com/folio/testimonial-relay/internal/redis"
	"github.com/folio/testimonial-relay/internal/repository"
	"github.com/folio/testimonial-relay/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	tokenRepo := repository.NewCommentTokenRepository(db.DB)
	testimonialRepo := repository.NewTestimonialRepository(db.DB)

	m := metrics.New()

	var mailer service.Mailer
	if cfg.InviteReady() {
		mailer = mail.NewClient(cfg.ResendAPIURL, cfg.ResendAPIKey, cfg.ResendFromEmail, config.OutboundRequestTimeout)
	}

	var verifier middleware.UserVerifier
	if cfg.AuthReady() {
		verifier = gotrue.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, config.OutboundRequestTimeout)
	}

	inviteService := service.NewInviteService(tokenRepo, mailer, m)
	testimonialService := service.NewTestimonialService(db, tokenRepo, testimonialRepo, m)
	limiter := service.NewRateLimiter(redisClient.Client)

	allowlist := access.NewAllowlist(cfg.AdminEmailList())
	adminAuth := middleware.NewAdminAuthMiddleware(verifier, allowlist)
	submitLimit := middleware.NewRateLimitMiddleware(
		limiter,
		service.Limit{Max: config.SubmitRateLimit, Window: config.SubmitRateWindow},
		"submit", middleware.ByClientIP, m,
	)
	inviteLimit := middleware.NewRateLimitMiddleware(
		limiter,
		service.Limit{Max: config.InviteRateLimit, Window: config.InviteRateWindow},
		"invite", middleware.ByAdminEmail, m,
	)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	adminHandler := handler.NewAdminHandler(testimonialService, inviteService, adminAuth.Handler)
	inviteHandler := handler.NewInviteHandler(inviteService, adminAuth.Handler, inviteLimit.Handler)
	testimonialHandler := handler.NewTestimonialHandler(testimonialService, submitLimit.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.RequestMetrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", handler.Health(config.DBPingTimeout, map[string]handler.Pinger{
		"postgres": db,
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
		r.Mount("/admin", adminHandler.Routes())
		r.Mount("/send-invite", inviteHandler.Routes())
		r.Mount("/", testimonialHandler.Routes())
	})

	cleanupJob, err := jobs.NewCleanupJob(tokenRepo, cfg.CleanupSchedule, config.TokenRetention, m)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid cleanup schedule")
	}
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Bool("invites", cfg.InviteReady()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
