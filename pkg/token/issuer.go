// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"fmt"
	"time"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
)

// npmCodec is the npm token format selected by the security mode.
type npmCodec interface {
	issue(user *auth.AuthenticatedUser, info *auth.TokenInfo) (string, error)
	verify(raw string) (Claims, error)
}

// Issuer mints and verifies registry tokens. The npm token format is fixed
// at construction.
type Issuer struct {
	mode   string
	ui     *signer
	uiTTL  time.Duration
	npm    npmCodec
	npmTTL time.Duration
}

// Option configures an Issuer.
type Option func(*issuerOptions)

type issuerOptions struct {
	now func() time.Time
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *issuerOptions) {
		o.now = now
	}
}

// NewIssuer creates an Issuer for the given security settings.
func NewIssuer(cfg config.SecurityConfig, opts ...Option) (*Issuer, error) {
	o := issuerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Secret == "" {
		return nil, errors.NewConfigurationError("security secret is required", nil)
	}
	uiTTL := cfg.UITokenTTL
	if uiTTL <= 0 {
		uiTTL = config.DefaultUITokenTTL
	}
	npmTTL := cfg.NpmTokenTTL
	if npmTTL <= 0 {
		npmTTL = config.DefaultNpmTokenTTL
	}

	s := &signer{key: []byte(cfg.Secret), now: o.now}
	i := &Issuer{mode: cfg.Mode, ui: s, uiTTL: uiTTL, npmTTL: npmTTL}

	switch cfg.Mode {
	case "", config.SecurityModeSigned:
		i.mode = config.SecurityModeSigned
		i.npm = &signedNpm{signer: s, ttl: npmTTL}
	case config.SecurityModeLegacy:
		i.npm = &legacyNpm{codec: newLegacyCodec(cfg.Secret, o.now)}
	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("unknown security mode %q", cfg.Mode), nil)
	}
	return i, nil
}

// Mode returns the npm token mode, "signed" or "legacy".
func (i *Issuer) Mode() string {
	return i.mode
}

// IssueUIToken signs a web UI token for user.
func (i *Issuer) IssueUIToken(user *auth.AuthenticatedUser) (string, error) {
	return i.ui.sign(user.Name, user.RealGroups, i.uiTTL)
}

// VerifyUIToken verifies a web UI token.
func (i *Issuer) VerifyUIToken(raw string) (*UserClaims, error) {
	return i.ui.verify(raw)
}

// IssueNpmToken mints an npm token. info is the provider credential the
// login produced; legacy mode embeds its expiry or its access token.
func (i *Issuer) IssueNpmToken(user *auth.AuthenticatedUser, info *auth.TokenInfo) (string, error) {
	return i.npm.issue(user, info)
}

// VerifyNpmToken verifies an npm token and returns its claims.
func (i *Issuer) VerifyNpmToken(raw string) (Claims, error) {
	return i.npm.verify(raw)
}

type signedNpm struct {
	signer *signer
	ttl    time.Duration
}

func (s *signedNpm) issue(user *auth.AuthenticatedUser, _ *auth.TokenInfo) (string, error) {
	return s.signer.sign(user.Name, user.RealGroups, s.ttl)
}

func (s *signedNpm) verify(raw string) (Claims, error) {
	return s.signer.verify(raw)
}

type legacyNpm struct {
	codec *legacyCodec
}

func (l *legacyNpm) issue(user *auth.AuthenticatedUser, info *auth.TokenInfo) (string, error) {
	if info != nil && info.ExpiresAt != nil {
		return l.codec.encode(legacyPayload{
			Username:  user.Name,
			Groups:    user.RealGroups,
			ExpiresAt: info.ExpiresAt.Unix(),
		})
	}
	if info == nil || info.AccessToken == "" {
		return "", fmt.Errorf("%w: provider token carries neither expiry nor access token", ErrInvalidToken)
	}
	return l.codec.encode(legacyPayload{
		Subject:     info.Subject,
		AccessToken: info.AccessToken,
		Provider:    info.ProviderID,
	})
}

func (l *legacyNpm) verify(raw string) (Claims, error) {
	return l.codec.decode(raw)
}
