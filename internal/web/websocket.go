package web

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-portfolio/room-chat/internal/chat"
	"github.com/google/uuid"
)

// =========================
// ChatConnectionHandler
// GET /ws
// =========================
func (s *Server) ChatConnectionHandler(w http.ResponseWriter, r *http.Request) {
	// Пусто, если токена не было и авторизация не обязательна
	username := UserFromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws.upgrade", "err", err)
		return
	}

	sessionID := uuid.NewString()
	client := chat.NewClient(s.hub, s.coord, conn, sessionID, username, s.opts.Client, s.log.With("session", sessionID))
	s.log.Debug("ws.connect", "session", sessionID, "user", username, "remote", r.RemoteAddr)
	client.Serve()
}

// checkOrigin пропускает запросы без Origin, с того же хоста и из списка ALLOWED_ORIGINS.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := slices.ContainsFunc(s.opts.AllowedOrigins, func(o string) bool {
		return o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin)
	})
	if allowed {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
