package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-portfolio/room-chat/config"
	"github.com/go-portfolio/room-chat/internal/app"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
)

func main() {
	// Локально читаем .env, в продакшене переменные берутся из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := app.NewLogger(cfg.Env)

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application, err := app.New(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("app.init", "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.listen", "addr", cfg.HTTPAddr, "rooms", cfg.Chat.Rooms)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.serve", "err", err)
			os.Exit(1)
		}
	}()

	// =========================
	// Graceful shutdown
	// =========================
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"chat": func(context.Context) error {
				return application.Close()
			},
		},
	)

	exitCode := <-wait
	logger.Info("app.exit", "code", exitCode)
	os.Exit(exitCode)
}
