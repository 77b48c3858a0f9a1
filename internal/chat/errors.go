package chat

import "errors"

// Kind — класс ошибки, по которому транспорт и метрики группируют отказы.
type Kind string

const (
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindRateLimited          Kind = "rate_limited"
	KindDuplicateDisplayName Kind = "duplicate_display_name"
	KindUnauthenticated      Kind = "unauthenticated"
	KindInternal             Kind = "internal"
)

// Тексты ошибок уходят клиенту как есть, поэтому они короткие и читаемые.
var (
	ErrInvalidName     = errors.New("username required")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrInvalidReaction = errors.New("invalid reaction")
	ErrInvalidPage     = errors.New("invalid page")
	ErrInvalidEvent    = errors.New("malformed event")

	ErrDuplicateSession     = errors.New("session already joined")
	ErrSessionClosed        = errors.New("session closed")
	ErrDuplicateDisplayName = errors.New("username already taken")

	ErrNotFound         = errors.New("not found")
	ErrUnknownRoom      = errors.New("invalid room")
	ErrMessageNotFound  = errors.New("message not found")
	ErrRecipientOffline = errors.New("user offline")

	ErrRateLimited     = errors.New("too many messages, slow down")
	ErrUnauthenticated = errors.New("not authenticated")
)

// KindOf сопоставляет ошибку операции с её классом.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrInvalidReaction),
		errors.Is(err, ErrInvalidPage),
		errors.Is(err, ErrInvalidEvent),
		errors.Is(err, ErrDuplicateSession),
		errors.Is(err, ErrSessionClosed):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnknownRoom),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrRecipientOffline):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrDuplicateDisplayName):
		return KindDuplicateDisplayName
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
		return KindInternal
	}
}
