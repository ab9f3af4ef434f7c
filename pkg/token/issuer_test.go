// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestIssuer(t *testing.T, mode string, c *clock) *Issuer {
	t.Helper()
	i, err := NewIssuer(config.SecurityConfig{
		Mode:        mode,
		Secret:      testSecret,
		UITokenTTL:  7 * 24 * time.Hour,
		NpmTokenTTL: 30 * 24 * time.Hour,
	}, WithClock(c.Now))
	require.NoError(t, err)
	return i
}

var alice = &auth.AuthenticatedUser{Name: "alice", RealGroups: []string{"alice", "dev"}}

func TestNewIssuer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		wantMode string
		wantErr  bool
	}{
		{name: "default mode is signed", cfg: config.SecurityConfig{Secret: testSecret}, wantMode: "signed"},
		{name: "legacy", cfg: config.SecurityConfig{Secret: testSecret, Mode: "legacy"}, wantMode: "legacy"},
		{name: "unknown mode", cfg: config.SecurityConfig{Secret: testSecret, Mode: "rot13"}, wantErr: true},
		{name: "missing secret", cfg: config.SecurityConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			i, err := NewIssuer(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, i.Mode())
		})
	}
}

func TestUIToken(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeLegacy, c)

	raw, err := i.IssueUIToken(alice)
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3, "UI tokens are signed JWTs in every mode")

	claims, err := i.VerifyUIToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []string{"alice", "dev"}, claims.Groups)
	assert.WithinDuration(t, c.now.Add(7*24*time.Hour), claims.ExpiresAt, time.Second)

	c.now = c.now.Add(8 * 24 * time.Hour)
	_, err = i.VerifyUIToken(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedNpmToken(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeSigned, c)

	raw, err := i.IssueNpmToken(alice, &auth.TokenInfo{AccessToken: "at"})
	require.NoError(t, err)

	claims, err := i.VerifyNpmToken(raw)
	require.NoError(t, err)
	user, ok := claims.(*UserClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, []string{"alice", "dev"}, user.Groups)

	c.now = c.now.Add(31 * 24 * time.Hour)
	_, err = i.VerifyNpmToken(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedToken_Rejects(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeSigned, c)

	other, err := NewIssuer(config.SecurityConfig{Secret: "another-secret-value-here"})
	require.NoError(t, err)
	foreign, err := other.IssueUIToken(alice)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"name": "mallory",
		"exp":  c.now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "alice"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":       "not-a-token",
		"empty":         "",
		"wrong key":     foreign,
		"none alg":      noneAlg,
		"no expiration": noExp,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := i.VerifyUIToken(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestLegacyNpmToken_UserShapeRoundTrip(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeLegacy, c)

	expiresAt := c.now.Add(time.Hour)
	raw, err := i.IssueNpmToken(alice, &auth.TokenInfo{AccessToken: "at", ExpiresAt: &expiresAt})
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 5, "legacy tokens are compact JWE")

	claims, err := i.VerifyNpmToken(raw)
	require.NoError(t, err)
	user, ok := claims.(*UserClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, []string{"alice", "dev"}, user.Groups)
	assert.Equal(t, expiresAt.Unix(), user.ExpiresAt.Unix())

	c.now = expiresAt.Add(time.Second)
	_, err = i.VerifyNpmToken(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestLegacyNpmToken_AccessTokenShape(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeLegacy, c)

	raw, err := i.IssueNpmToken(alice, &auth.TokenInfo{ProviderID: "corp", Subject: "sub-1", AccessToken: "provider-at"})
	require.NoError(t, err)

	claims, err := i.VerifyNpmToken(raw)
	require.NoError(t, err)
	assert.Equal(t, &AccessTokenClaims{Provider: "corp", Subject: "sub-1", AccessToken: "provider-at"}, claims)

	// The access-token shape has no expiry of its own.
	c.now = c.now.Add(365 * 24 * time.Hour)
	_, err = i.VerifyNpmToken(raw)
	assert.NoError(t, err)
}

func TestLegacyNpmToken_Rejects(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Now()}
	i := newTestIssuer(t, config.SecurityModeLegacy, c)

	other, err := NewIssuer(config.SecurityConfig{Mode: "legacy", Secret: "another-secret-value-here"})
	require.NoError(t, err)
	expiresAt := c.now.Add(time.Hour)
	foreign, err := other.IssueNpmToken(alice, &auth.TokenInfo{AccessToken: "at", ExpiresAt: &expiresAt})
	require.NoError(t, err)

	signed, err := newTestIssuer(t, config.SecurityModeSigned, c).IssueNpmToken(alice, nil)
	require.NoError(t, err)

	empty, err := i.npm.(*legacyNpm).codec.encode(legacyPayload{Username: "alice"})
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":       "a.b.c.d.e",
		"wrong secret":  foreign,
		"signed token":  signed,
		"unknown shape": empty,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := i.VerifyNpmToken(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = i.IssueNpmToken(alice, &auth.TokenInfo{})
	assert.Error(t, err)
}
