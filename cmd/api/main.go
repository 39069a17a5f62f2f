package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/config"
	"github.com/coursely/coursely-api/internal/domain/course"
	"github.com/coursely/coursely-api/internal/domain/notification"
	"github.com/coursely/coursely-api/internal/domain/payout"
	"github.com/coursely/coursely-api/internal/domain/purchase"
	"github.com/coursely/coursely-api/internal/domain/referral"
	"github.com/coursely/coursely-api/internal/domain/user"
	"github.com/coursely/coursely-api/internal/domain/wallet"
	"github.com/coursely/coursely-api/internal/middleware"
	"github.com/coursely/coursely-api/internal/pkg/database"
	"github.com/coursely/coursely-api/internal/pkg/jwt"
	"github.com/coursely/coursely-api/internal/pkg/logger"
	"github.com/coursely/coursely-api/internal/pkg/response"
	"github.com/coursely/coursely-api/internal/pkg/validator"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Coursely API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	v := validator.New()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	courseRepo := course.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	codeRepo := referral.NewCodeRepository(db, redisClient)
	referralRepo := referral.NewRepository(db, walletRepo)
	purchaseRepo := purchase.NewRepository(db)
	payoutRepo := payout.NewRepository(db, walletRepo)
	notificationRepo := notification.NewRepository(db)

	// ---------- Services ----------
	userService := user.NewService(userRepo, jwtService)
	walletService := wallet.NewService(walletRepo)
	notificationService := notification.NewService(notificationRepo)
	resolver := referral.NewResolver(codeRepo)
	grantService := referral.NewGrantService(resolver, courseRepo, referralRepo, notificationService, cfg.DefaultCommissionPercent)
	purchaseService := purchase.NewService(purchaseRepo, courseRepo, grantService)
	payoutService := payout.NewService(payoutRepo, notificationService, cfg.MinPayoutAmount)

	// ---------- Handlers ----------
	userHandler := user.NewHandler(userService, v)
	courseHandler := course.NewHandler(courseRepo, v)
	walletHandler := wallet.NewHandler(walletService)
	referralHandler := referral.NewHandler(codeRepo, referralRepo, userRepo, courseRepo, v)
	purchaseHandler := purchase.NewHandler(purchaseService, v, cfg.GatewaySecret)
	payoutHandler := payout.NewHandler(payoutService, v)
	notificationHandler := notification.NewHandler(notificationService)

	// ---------- Middleware ----------
	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.Routes(authMiddleware))

		r.Mount("/courses", courseHandler.Routes())
		r.Mount("/admin/courses", courseHandler.AdminRoutes(authMiddleware, adminMiddleware))

		r.Mount("/purchases", purchaseHandler.Routes(authMiddleware))

		r.Route("/wallet", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", walletHandler.Summary)
			r.Get("/transactions", walletHandler.Transactions)
			r.Post("/payout-requests", payoutHandler.CreateRequest)
			r.Get("/payout-requests", payoutHandler.ListMyRequests)
			r.Post("/payout-methods", payoutHandler.CreateMethod)
			r.Get("/payout-methods", payoutHandler.ListMethods)
		})
		r.Mount("/admin/payout-requests", payoutHandler.AdminRoutes(authMiddleware, adminMiddleware))

		r.Mount("/referrals", referralHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
