package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-portfolio/room-chat/config"
	"github.com/go-portfolio/room-chat/internal/auth"
	"github.com/go-portfolio/room-chat/internal/chat"
	"github.com/go-portfolio/room-chat/internal/user"
	"github.com/go-portfolio/room-chat/internal/web"
)

// App — собранное приложение: хаб, координатор, хранилище и HTTP-маршруты.
type App struct {
	Handler     http.Handler
	Hub         *chat.Hub
	Coordinator *chat.Coordinator
	Users       user.Store

	log *slog.Logger
}

// New собирает зависимости по конфигу.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// User store: Postgres, если задан DATABASE_URL, иначе память
	var store user.Store
	if cfg.DatabaseURL != "" {
		pg, err := user.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init user store: %w", err)
		}
		store = pg
	} else {
		logger.Warn("app.users.memory", "reason", "DATABASE_URL not set, accounts live in memory")
		store = user.NewMemoryStore()
	}

	if cfg.IsDev() && cfg.JWTSecret == "dev-secret" {
		logger.Warn("app.jwt.dev_secret", "reason", "JWT_SECRET not set, using default secret")
	}
	tokens, err := auth.NewTokens([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init tokens: %w", err)
	}

	hub := chat.NewHub(logger.With("component", "hub"))
	coord, err := chat.NewCoordinator(hub, logger.With("component", "chat"), chat.Options{
		Rooms:           cfg.Chat.Rooms,
		DefaultRoom:     cfg.Chat.DefaultRoom,
		HistoryCapacity: cfg.Chat.HistoryCapacity,
		PageSize:        cfg.Chat.PageSize,
		RateMax:         cfg.Chat.RateLimitMax,
		RateWindow:      cfg.Chat.RateLimitWindow,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init chat: %w", err)
	}

	srv := web.NewServer(coord, hub, store, tokens, logger.With("component", "http"), web.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRequired:   cfg.AuthRequired,
		SecureCookie:   !cfg.IsDev(),
		Client: chat.ClientConfig{
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
			PingInterval:   cfg.WebSocket.PingInterval,
			PongTimeout:    cfg.WebSocket.PongTimeout,
			SendBuffer:     cfg.WebSocket.SendBuffer,
		},
	})

	return &App{
		Handler:     srv.Routes(),
		Hub:         hub,
		Coordinator: coord,
		Users:       store,
		log:         logger,
	}, nil
}

// Close закрывает все соединения и хранилище пользователей.
func (a *App) Close() error {
	a.Hub.Close()
	if err := a.Users.Close(); err != nil {
		return fmt.Errorf("close user store: %w", err)
	}
	return nil
}
