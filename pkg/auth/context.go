// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import "context"

// UserContextKey is the key used to store the AuthenticatedUser in a request
// context. An empty struct type cannot collide with keys from other packages.
type UserContextKey struct{}

// WithUser stores an AuthenticatedUser in the context.
// If user is nil, the original context is returned unchanged.
//
// This is called by the bearer middleware once a registry token has been
// verified, so downstream handlers can see who made the request.
func WithUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, UserContextKey{}, user)
}

// UserFromContext retrieves the AuthenticatedUser from the context.
// Returns the user and true if present, nil and false otherwise.
//
// Example:
//
//	user, ok := UserFromContext(r.Context())
//	if !ok {
//	    http.Error(w, "unauthorized", http.StatusUnauthorized)
//	    return
//	}
func UserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(UserContextKey{}).(*AuthenticatedUser)
	return user, ok
}
