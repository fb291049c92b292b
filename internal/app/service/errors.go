package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sifan077/LinkPulse/internal/app/repository"
)

var (
	ErrLinkNotFound = repository.ErrLinkNotFound

	// ErrAllocationExhausted means no free short code was found within the retry budget.
	ErrAllocationExhausted = errors.New("short code allocation exhausted")

	ErrUserNotFound       = repository.ErrUserNotFound
	ErrUserExists         = repository.ErrUserExists
	ErrInactiveAccount    = errors.New("invalid username or inactive account")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError reports bad client input. Fields maps request fields to problems.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, problem := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, problem))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}
