package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config хранит все переменные окружения для проекта.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":5000"`

	// При пустом DATABASE_URL пользователи хранятся в памяти
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	AuthRequired   bool          `env:"AUTH_REQUIRED" envDefault:"false"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`

	Chat      ChatConfig
	WebSocket WebSocketConfig

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ChatConfig — параметры комнат, истории и лимитов.
type ChatConfig struct {
	Rooms           []string      `env:"CHAT_ROOMS" envSeparator:"," envDefault:"general,random,tech"`
	DefaultRoom     string        `env:"CHAT_DEFAULT_ROOM" envDefault:"general"`
	HistoryCapacity int           `env:"CHAT_HISTORY_CAPACITY" envDefault:"1000"`
	PageSize        int           `env:"CHAT_PAGE_SIZE" envDefault:"20"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1s"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
}

// WebSocketConfig — параметры соединений.
type WebSocketConfig struct {
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"1000000"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"25s"`
	PongTimeout    time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`
	SendBuffer     int           `env:"WS_SEND_BUFFER" envDefault:"256"`
}

// Load читает конфигурацию из переменных окружения и проверяет её.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDev сообщает, запущен ли сервер в режиме разработки.
func (c *Config) IsDev() bool { return c.Env == "dev" }

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is empty"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	}
	if !c.IsDev() && c.JWTSecret == "dev-secret" {
		errs = append(errs, errors.New("JWT_SECRET must be set outside dev"))
	}
	if len(c.Chat.Rooms) == 0 {
		errs = append(errs, errors.New("CHAT_ROOMS is empty"))
	} else if !slices.Contains(c.Chat.Rooms, c.Chat.DefaultRoom) {
		errs = append(errs, fmt.Errorf("CHAT_DEFAULT_ROOM %q is not in CHAT_ROOMS", c.Chat.DefaultRoom))
	}
	if c.Chat.HistoryCapacity <= 0 {
		errs = append(errs, errors.New("CHAT_HISTORY_CAPACITY must be positive"))
	}
	if c.Chat.PageSize <= 0 {
		errs = append(errs, errors.New("CHAT_PAGE_SIZE must be positive"))
	}
	if c.Chat.RateLimitMax <= 0 || c.Chat.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.WebSocket.PongTimeout <= c.WebSocket.PingInterval {
		errs = append(errs, errors.New("WS_PONG_TIMEOUT must exceed WS_PING_INTERVAL"))
	}
	return errors.Join(errs...)
}
