package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meetsync/signal-server/internal/auth"
	"github.com/meetsync/signal-server/internal/cache"
	"github.com/meetsync/signal-server/internal/config"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/handler"
	"github.com/meetsync/signal-server/internal/hub"
	"github.com/meetsync/signal-server/internal/kafka"
	"github.com/meetsync/signal-server/internal/ledger"
	"github.com/meetsync/signal-server/internal/repository"
	"github.com/meetsync/signal-server/internal/service"
	"github.com/meetsync/signal-server/pkg/database"
	pkgjwt "github.com/meetsync/signal-server/pkg/jwt"
	pkglog "github.com/meetsync/signal-server/pkg/log"
	"github.com/meetsync/signal-server/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "signal-server",
	})
	logger := pkglog.L()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("auth.jwt_secret is required")
	}

	// Connect to database using GORM
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db, &domain.MeetingModel{}, &domain.UserModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize repositories
	meetingRepo := repository.NewGormMeetingRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Initialize Redis cache
	var meetingCache cache.MeetingCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisMeetingCache(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.Prefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		meetingCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis cache connected")
	}

	// Initialize Kafka producer for meeting lifecycle events
	var producer kafka.MeetingEventProducer
	if cfg.Kafka.Enabled {
		confluentProducer, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka producer, meeting events disabled")
		} else {
			defer confluentProducer.Close()
			producer = confluentProducer
			logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("connected to kafka")
		}
	}

	// Initialize the meeting ledger worker
	synchronizer := ledger.NewSynchronizer(meetingRepo, meetingCache, producer, cfg.Ledger.QueueSize)
	synchronizer.Start()

	// Initialize hub and services
	wsHub := hub.NewHub()
	signalSvc := service.NewSignalService(wsHub, synchronizer)
	meetingSvc := service.NewMeetingService(meetingRepo, meetingCache, cfg.Cache.TTL)

	// Initialize auth
	tokenManager := pkgjwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	verifier := auth.NewVerifier(tokenManager, userRepo)
	authMiddleware := middleware.NewAuthMiddleware(tokenManager)

	// Initialize handlers
	wsHandler := handler.NewWSHandler(wsHub, signalSvc, verifier, hub.Options{
		PingInterval:   cfg.WebSocket.PingInterval,
		PongWait:       cfg.WebSocket.PongWait,
		WriteWait:      cfg.WebSocket.WriteWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	}, cfg.WebSocket.SendBuffer)
	httpHandler := handler.NewHTTPHandler(meetingSvc, authMiddleware, cfg.WebRTC.ICEServers)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("signal-server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down signal-server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := synchronizer.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ledger drain incomplete")
	}

	logger.Info().Msg("signal-server stopped")
}
