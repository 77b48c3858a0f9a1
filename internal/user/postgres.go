package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// uniqueViolation — код ошибки Postgres для нарушения UNIQUE.
const uniqueViolation = "23505"

// PostgresStore хранит пользователей в таблице users.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore подключается к базе по dsn и применяет миграции.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB оборачивает уже открытое соединение.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Register добавляет пользователя. Для занятого логина возвращает ErrUserExists.
func (s *PostgresStore) Register(ctx context.Context, cred Credentials) error {
	if err := cred.Normalize(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := sql.NullString{String: cred.Avatar, Valid: cred.Avatar != ""}

	query := `INSERT INTO users (username, password_hash, created_at, avatar) VALUES ($1, $2, $3, $4)`
	_, err = s.db.ExecContext(ctx, query, cred.Username, string(hash), s.now(), avatar)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Authenticate сверяет пароль с хэшем из базы.
func (s *PostgresStore) Authenticate(ctx context.Context, username, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username=$1`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("select user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Avatar возвращает аватар пользователя или пустую строку.
func (s *PostgresStore) Avatar(ctx context.Context, username string) (string, error) {
	var avatar sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT avatar FROM users WHERE username=$1`, username).Scan(&avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select avatar: %w", err)
	}
	return avatar.String, nil
}

// Close закрывает пул соединений.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "unique")
}
