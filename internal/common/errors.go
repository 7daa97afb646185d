// Package common defines shared constants and sentinel errors used across
// client and server layers of otpmail. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrPersistence = errors.New("persistence error")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Key lifecycle errors.
	ErrEntropySourceUnavailable = errors.New("entropy source unavailable")
	ErrKeyTooShort              = errors.New("key too short")
	ErrKeyIntegrity             = errors.New("key material does not match its fingerprint")

	// Cipher errors.
	ErrInvalidCiphertextEncoding = errors.New("invalid ciphertext encoding")
	ErrInvalidPlaintextEncoding  = errors.New("invalid plaintext encoding")

	// Transport errors.
	ErrDelivery = errors.New("delivery error")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
