// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package token issues and verifies the registry's own tokens: UI tokens and
// npm tokens. UI tokens are always signed JWTs. npm tokens are either signed
// JWTs or, in legacy mode, encrypted envelopes.
package token

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrInvalidToken is returned for tokens that fail to decode, decrypt or
	// verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the result of verifying an npm token. It is either *UserClaims
// or *AccessTokenClaims.
type Claims interface {
	isClaims()
}

// UserClaims identify a user and their realm groups directly.
type UserClaims struct {
	Name      string
	Groups    []string
	ExpiresAt time.Time
}

func (*UserClaims) isClaims() {}

// AccessTokenClaims carry only a provider access token. The holder's identity
// must be resolved again through the identity provider.
type AccessTokenClaims struct {
	// Provider is the id of the provider that issued AccessToken. Empty for
	// tokens minted before it was recorded.
	Provider    string
	Subject     string
	AccessToken string
}

func (*AccessTokenClaims) isClaims() {}

func newUserClaims(name string, groups []string, expiresAt time.Time) *UserClaims {
	return &UserClaims{Name: name, Groups: slices.Clone(groups), ExpiresAt: expiresAt}
}
