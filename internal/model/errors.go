package model

import (
	"errors"
	"fmt"
)

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Record related errors. ErrAssetNotFound and ErrTransactionNotFound wrap
	// ErrNotFound so callers that only care about existence can test for it.
	ErrNotFound            = errors.New("not found")
	ErrAssetNotFound       = fmt.Errorf("asset %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Deletion flow errors
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrStoreUnavailable  = errors.New("deletion store unavailable")
	ErrNoPendingSession  = errors.New("no pending deletion")
	ErrControllerClosed  = errors.New("deletion controller closed")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
