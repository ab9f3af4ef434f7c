// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the error taxonomy shared by the regoidc packages.
// Flow controllers map these types onto HTTP responses; nothing else needs
// to know which component produced a failure.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error types
const (
	// ErrConfiguration is a fatal problem with the loaded configuration.
	ErrConfiguration = "configuration"

	// ErrProtocol is a broken OAuth handshake: missing or unknown state,
	// provider error responses, missing tokens.
	ErrProtocol = "protocol"

	// ErrIdentityResolution means no usable identity could be derived from
	// the provider's claims.
	ErrIdentityResolution = "identity_resolution"

	// ErrStore is a failure of the correlation store backend.
	ErrStore = "store"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *Error {
	return NewError(ErrConfiguration, message, cause)
}

// NewProtocolError creates a new protocol error
func NewProtocolError(message string, cause error) *Error {
	return NewError(ErrProtocol, message, cause)
}

// NewIdentityResolutionError creates a new identity resolution error
func NewIdentityResolutionError(message string, cause error) *Error {
	return NewError(ErrIdentityResolution, message, cause)
}

// NewStoreError creates a new store error
func NewStoreError(message string, cause error) *Error {
	return NewError(ErrStore, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// TypeOf returns the type of the outermost *Error in err's chain, or "" when
// there is none.
func TypeOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return TypeOf(err) == ErrConfiguration
}

// IsProtocol checks if the error is a protocol error
func IsProtocol(err error) bool {
	return TypeOf(err) == ErrProtocol
}

// IsIdentityResolution checks if the error is an identity resolution error
func IsIdentityResolution(err error) bool {
	return TypeOf(err) == ErrIdentityResolution
}

// IsStore checks if the error is a store error
func IsStore(err error) bool {
	return TypeOf(err) == ErrStore
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return TypeOf(err) == ErrInternal
}
