// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedClaims is the JWT body of a signed token.
type signedClaims struct {
	Name       string   `json:"name"`
	RealGroups []string `json:"real_groups"`
	jwt.RegisteredClaims
}

// signer issues and verifies HS256 tokens with the registry secret.
type signer struct {
	key []byte
	now func() time.Time
}

func (s *signer) sign(name string, groups []string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := signedClaims{
		Name:       name,
		RealGroups: groups,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *signer) verify(raw string) (*UserClaims, error) {
	var claims signedClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidToken)
	}
	return newUserClaims(claims.Name, claims.RealGroups, claims.ExpiresAt.Time), nil
}
