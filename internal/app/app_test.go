package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-portfolio/room-chat/config"
	"github.com/go-portfolio/room-chat/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       "dev",
		HTTPAddr:  ":0",
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		Chat: config.ChatConfig{
			Rooms:           []string{"lobby", "offtopic"},
			DefaultRoom:     "lobby",
			HistoryCapacity: 10,
			PageSize:        5,
			RateLimitWindow: time.Second,
			RateLimitMax:    5,
		},
		WebSocket: config.WebSocketConfig{
			PingInterval: time.Second,
			PongTimeout:  5 * time.Second,
		},
	}
}

func TestNew_InMemory(t *testing.T) {
	a, err := New(context.Background(), testConfig(), newLogger("dev", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, isMemory := a.Users.(*user.MemoryStore)
	assert.True(t, isMemory)
	assert.Equal(t, []string{"lobby", "offtopic"}, a.Coordinator.Rooms())

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"lobby","name":"Lobby"},{"id":"offtopic","name":"Offtopic"}]`, rec.Body.String())
}

func TestNew_BadDefaultRoom(t *testing.T) {
	cfg := testConfig()
	cfg.Chat.DefaultRoom = "missing"

	_, err := New(context.Background(), cfg, newLogger("dev", io.Discard))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger("prod", &buf).Info("chat.join", "user", "alice")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	buf.Reset()
	newLogger("prod", &buf).Debug("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	newLogger("dev", &buf).Debug("chat.switch")
	assert.Contains(t, buf.String(), "msg=chat.switch")
}
