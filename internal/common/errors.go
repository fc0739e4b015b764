// Package common defines shared constants and sentinel errors used across
// the glowlog client and the hosted-backend adapter. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound     = errors.New("not found")
	ErrStorageRead  = errors.New("storage read error")
	ErrStorageWrite = errors.New("storage write error")

	// Hosted-backend errors.
	ErrUpload        = errors.New("upload error")
	ErrWrite         = errors.New("write error")
	ErrAlreadyExists = errors.New("already exists")

	// Validation of user-supplied record fields.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
