package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caro-server/internal/api/controller"
	apirepository "caro-server/internal/api/repository"
	"caro-server/internal/api/service"
	"caro-server/internal/config"
	"caro-server/internal/db"
	"caro-server/internal/hub"
	"caro-server/internal/logger"
	"caro-server/internal/repository"
	"caro-server/internal/room"
	"caro-server/internal/server"
	"caro-server/internal/telemetry"
)

func main() {
	ctx := context.Background()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	conf := config.MustLoad(configPath)

	shutdown, err := telemetry.InitOtel(ctx, conf.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(logger.ParseLevel(conf.LogLevel))

	// Match tallies are best effort: without Redis the games still run,
	// only the leaderboard goes dark.
	var stats repository.StatsRepository
	rdb, err := db.NewRedisClient(ctx, conf.Redis.Addr())
	if err != nil {
		slog.WarnContext(ctx, "redis unavailable, leaderboard disabled", "error", err)
	} else {
		stats = repository.NewStatsRepository(rdb)
	}

	pool, err := db.Connect(conf.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.Initialize(pool); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	userRepo := apirepository.NewUserRepository(pool)
	userService := service.NewUserService(userRepo, conf.JWTSecretKey)
	userController := controller.NewUserController(userService)
	leaderboardController := controller.NewLeaderboardController(stats)

	gameHub := hub.New(room.NewManager(), stats)

	srv := server.NewServer(gameHub, userService, userController, leaderboardController)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", conf.HTTPPort),
		Handler: srv.Engine(),
	}

	go func() {
		slog.InfoContext(ctx, "http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-stop
	slog.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
}
