package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")

	// ErrShortCodeTaken signals a unique-constraint hit on short_code.
	ErrShortCodeTaken = errors.New("short code already in use")

	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists signals a unique-constraint hit on username or email.
	ErrUserExists = errors.New("user already exists")
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
