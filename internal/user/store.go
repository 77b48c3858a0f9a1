package user

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Store — учётные записи пользователей чата.
type Store interface {
	Register(ctx context.Context, cred Credentials) error
	Authenticate(ctx context.Context, username, password string) error
	Avatar(ctx context.Context, username string) (string, error)
	Close() error
}

type memoryUser struct {
	hash   []byte
	avatar string
}

// MemoryStore — хранилище в памяти, когда DATABASE_URL не задан.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryUser
	cost int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryUser), cost: bcrypt.DefaultCost}
}

// Register сохраняет bcrypt-хэш пароля под новым логином.
func (s *MemoryStore) Register(_ context.Context, cred Credentials) error {
	if err := cred.Normalize(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[cred.Username]; exists {
		return ErrUserExists
	}
	s.data[cred.Username] = memoryUser{hash: hash, avatar: cred.Avatar}
	return nil
}

// Authenticate сверяет пароль с сохранённым хэшем.
func (s *MemoryStore) Authenticate(_ context.Context, username, password string) error {
	s.mu.RLock()
	u, ok := s.data[username]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Avatar возвращает аватар пользователя или пустую строку.
func (s *MemoryStore) Avatar(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[username].avatar, nil
}

// Close ничего не освобождает.
func (s *MemoryStore) Close() error { return nil }
