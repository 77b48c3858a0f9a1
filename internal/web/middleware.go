package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/cors"
)

type ctxKey string

const ctxUserKey ctxKey = "user" // имя пользователя из JWT

// UserFromContext возвращает имя, положенное AuthMiddleware, или пустую строку.
func UserFromContext(ctx context.Context) string {
	name, _ := ctx.Value(ctxUserKey).(string)
	return name
}

// =========================
// AuthMiddleware проверяет JWT из cookie, query-параметра token
// или заголовка Authorization. При required запрос без токена отклоняется.
// =========================
func (s *Server) AuthMiddleware(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				if required {
					writeError(w, http.StatusUnauthorized, "missing auth token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			userName, err := s.tokens.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserKey, userName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// newCORS разрешает кросс-доменные запросы фронтенда с cookie.
func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}
