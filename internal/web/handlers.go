package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-portfolio/room-chat/internal/auth"
	"github.com/go-portfolio/room-chat/internal/chat"
	"github.com/go-portfolio/room-chat/internal/metrics"
	"github.com/go-portfolio/room-chat/internal/user"
	"github.com/gorilla/websocket"
)

// CookieName — имя cookie с JWT.
const CookieName = "auth"

const (
	maxBodyBytes = 1 << 20
	maxPageLimit = 100
)

// Options — настройки HTTP-слоя.
type Options struct {
	AllowedOrigins []string
	AuthRequired   bool // /ws только с валидным токеном
	SecureCookie   bool // ставить Secure на cookie (HTTPS)
	Client         chat.ClientConfig
}

// Server собирает HTTP-обработчики поверх координатора чата.
type Server struct {
	coord    *chat.Coordinator
	hub      *chat.Hub
	users    user.Store
	tokens   *auth.Tokens
	log      *slog.Logger
	opts     Options
	upgrader websocket.Upgrader
}

// NewServer создаёт HTTP-слой.
func NewServer(coord *chat.Coordinator, hub *chat.Hub, users user.Store, tokens *auth.Tokens, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		coord:  coord,
		hub:    hub,
		users:  users,
		tokens: tokens,
		log:    logger,
		opts:   opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes возвращает корневой обработчик со всеми маршрутами и CORS.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HealthHandler)
	mux.HandleFunc("POST /api/register", s.RegisterHandler)
	mux.HandleFunc("POST /api/login", s.LoginHandler)
	mux.HandleFunc("POST /login", s.LoginHandler) // старый путь веб-клиента
	mux.HandleFunc("GET /rooms", s.RoomsHandler)
	mux.HandleFunc("GET /rooms/{room}/messages", s.RoomMessagesHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	// WebSocket маршрут с авторизацией через middleware
	mux.Handle("GET /ws", s.AuthMiddleware(s.opts.AuthRequired)(http.HandlerFunc(s.ChatConnectionHandler)))

	return newCORS(s.opts.AllowedOrigins).Handler(mux)
}

// =========================
// GET /health
// =========================
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// =========================
// Регистрация пользователя
// POST /api/register
// тело JSON { "username": "...", "password": "..." }
// =========================
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	cred, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	err := s.users.Register(r.Context(), cred)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
	case errors.Is(err, user.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrMissingFields), errors.Is(err, user.ErrUsernameTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("http.register", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// =========================
// Логин пользователя
// POST /api/login
// тело JSON { "username": "...", "password": "..." }
// =========================
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	cred, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := s.users.Authenticate(r.Context(), cred.Username, cred.Password); err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.log.Error("http.login", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Issue(cred.Username)
	if err != nil {
		s.log.Error("http.login.issue", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	avatar, err := s.users.Avatar(r.Context(), cred.Username)
	if err != nil {
		s.log.Warn("http.login.avatar", "user", cred.Username, "err", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.tokens.TTL().Seconds()),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		Token:    token,
		Username: cred.Username,
		Avatar:   avatar,
	})
}

// =========================
// GET /rooms
// =========================
func (s *Server) RoomsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.RoomList())
}

// =========================
// GET /rooms/{room}/messages?page=&limit=
// =========================
func (s *Server) RoomMessagesHandler(w http.ResponseWriter, r *http.Request) {
	room := r.PathValue("room")

	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	result, err := s.coord.ReadPage(room, page, limit)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, chat.ErrUnknownRoom):
		writeError(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, chat.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("http.messages", "room", room, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (user.Credentials, bool) {
	var cred user.Credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return cred, false
	}
	return cred, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
