package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"crowd-sim/internal/config"
	"crowd-sim/internal/db"
	"crowd-sim/internal/email"
	apihttp "crowd-sim/internal/http"
	"crowd-sim/internal/repository"
	"crowd-sim/internal/service"
	"crowd-sim/internal/simulation"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	segmentRepo := repository.NewPgSegmentRepository(pool)
	surveyRepo := repository.NewPgSurveyRepository(pool)
	sourceRepo := repository.NewPgDataSourceRepository(pool)
	runRepo := repository.NewPgRunRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	launchLimiter := service.NewLaunchRateLimiter(time.Hour, cfg.SimMaxLaunchesPerHour)
	var (
		tokenStore  service.RefreshTokenStore
		statusStore service.RunStatusStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			launchLimiter = service.NewRedisLaunchRateLimiter(redisClient, time.Hour, cfg.SimMaxLaunchesPerHour)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			statusStore = service.NewRedisRunStatusStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo)
	simulator := simulation.NewSimulator(logger, cfg.SimWorkers)
	studySvc := service.NewStudyService(
		logger,
		surveyRepo,
		segmentRepo,
		sourceRepo,
		runRepo,
		userRepo,
		simulator,
		statusStore,
		launchLimiter,
		emailSender,
	)

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	catalogHandler := apihttp.NewCatalogHandler(logger, segmentRepo, surveyRepo, sourceRepo)
	studyHandler := apihttp.NewStudyHandler(logger, studySvc)
	router := apihttp.NewRouter(logger, jwtSvc, authHandler, catalogHandler, studyHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
