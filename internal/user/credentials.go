package user

import (
	"errors"
	"strings"
)

// MaxUsernameLen — длина логина, под которую размечена колонка users.username.
const MaxUsernameLen = 24

var (
	ErrMissingFields      = errors.New("username and password are required")
	ErrUsernameTooLong    = errors.New("username too long (max 24)")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credentials — тело запросов логина и регистрации.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// Normalize обрезает пробелы в логине и проверяет обязательные поля.
func (c *Credentials) Normalize() error {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return ErrMissingFields
	}
	if len(c.Username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
