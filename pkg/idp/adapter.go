// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package idp adapts one OIDC identity provider to the registry: it builds
// login URLs, exchanges callback codes for tokens and resolves the provider
// user behind a token.
package idp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/storage"
)

var (
	// ErrDiscoveryPending is returned while provider discovery is in flight.
	ErrDiscoveryPending = stderrors.New("provider discovery has not completed")

	// ErrNonceMismatch is returned when the nonce claim in the ID token does
	// not match the nonce stored with the state.
	ErrNonceMismatch = stderrors.New("ID token nonce does not match expected value")

	// ErrNonceMissing is returned when the ID token carries no nonce claim.
	ErrNonceMissing = stderrors.New("ID token missing nonce claim when nonce was expected")
)

// Adapter binds one configured provider to the correlation store.
type Adapter struct {
	cfg        config.ProviderConfig
	store      storage.Store
	httpClient *http.Client
	now        func() time.Time
	groups     GroupProvider

	// Written once by discover before ready is closed.
	ready        chan struct{}
	discoveryErr error
	provider     *oidc.Provider
	endpoint     oauth2.Endpoint
	verifier     *oidc.IDTokenVerifier

	resolvers []Resolver
	lookups   singleflight.Group
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the client used for discovery, token exchange and
// vendor API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithClock replaces the time source used for id token validation.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// WithGroupProvider overrides the vendor group provider derived from the
// configuration.
func WithGroupProvider(gp GroupProvider) Option {
	return func(a *Adapter) {
		a.groups = gp
	}
}

// NewAdapter creates an Adapter and starts provider discovery in the
// background. Use Ready to wait for it.
func NewAdapter(ctx context.Context, cfg config.ProviderConfig, store storage.Store, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		cfg:        cfg,
		store:      store,
		httpClient: http.DefaultClient,
		now:        time.Now,
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.groups == nil {
		gp, err := NewGroupProvider(cfg, a.httpClient)
		if err != nil {
			return nil, errors.NewIdentityResolutionError(fmt.Sprintf("provider %q", cfg.ID), err)
		}
		a.groups = gp
	}
	a.resolvers = []Resolver{
		&idTokenResolver{usernameClaim: cfg.UsernameClaim, groupsClaim: cfg.GroupsClaim},
		&userInfoResolver{adapter: a},
	}

	go a.discover(context.WithoutCancel(ctx))
	return a, nil
}

// ID returns the provider id.
func (a *Adapter) ID() string {
	return a.cfg.ID
}

// Config returns the provider configuration.
func (a *Adapter) Config() config.ProviderConfig {
	return a.cfg
}

// Ready blocks until discovery has finished and returns its error.
func (a *Adapter) Ready(ctx context.Context) error {
	select {
	case <-a.ready:
		return a.discoveryErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkReady fails fast while discovery is pending.
func (a *Adapter) checkReady() error {
	select {
	case <-a.ready:
		if a.discoveryErr != nil {
			return errors.NewConfigurationError(fmt.Sprintf("provider %q discovery failed", a.cfg.ID), a.discoveryErr)
		}
		return nil
	default:
		return errors.NewInternalError(fmt.Sprintf("provider %q is not ready", a.cfg.ID), ErrDiscoveryPending)
	}
}

func (a *Adapter) discover(ctx context.Context) {
	defer close(a.ready)

	ctx = oidc.ClientContext(ctx, a.httpClient)
	logger.Debugw("discovering OIDC provider", "provider", a.cfg.ID, "issuer", a.cfg.Issuer)

	var provider *oidc.Provider
	if a.cfg.HasStaticEndpoints() {
		pc := &oidc.ProviderConfig{
			IssuerURL:   a.cfg.Issuer,
			AuthURL:     a.cfg.AuthorizationEndpoint,
			TokenURL:    a.cfg.TokenEndpoint,
			UserInfoURL: a.cfg.UserinfoEndpoint,
			JWKSURL:     a.cfg.JWKSURI,
		}
		provider = pc.NewProvider(ctx)
	} else {
		p, err := oidc.NewProvider(ctx, a.cfg.Issuer)
		if err != nil {
			logger.Errorw("OIDC discovery failed", "provider", a.cfg.ID, "error", err)
			a.discoveryErr = fmt.Errorf("failed to discover OIDC endpoints: %w", err)
			return
		}
		provider = p
	}

	a.provider = provider
	endpoint := provider.Endpoint()
	a.endpoint = oauth2.Endpoint{
		AuthURL:   endpoint.AuthURL,
		TokenURL:  endpoint.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}

	// Without a JWKS the signature cannot be checked; id tokens are then
	// only decoded and the nonce compared.
	if !a.cfg.HasStaticEndpoints() || a.cfg.JWKSURI != "" {
		a.verifier = provider.Verifier(&oidc.Config{
			ClientID: a.cfg.ClientID,
			Now:      a.now,
		})
	}

	logger.Infow("OIDC provider ready",
		"provider", a.cfg.ID,
		"issuer", a.cfg.Issuer,
		"id_token_verification", a.verifier != nil,
		"group_provider", a.groupProviderName(),
	)
}

func (a *Adapter) groupProviderName() string {
	if a.groups == nil {
		return ""
	}
	return a.groups.Name()
}

func (a *Adapter) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       a.cfg.Scopes,
		Endpoint:     a.endpoint,
	}
}

func (a *Adapter) requestsOpenID() bool {
	return slices.Contains(a.cfg.Scopes, oidc.ScopeOpenID)
}

// LoginURL stores a fresh nonce under state and returns the provider's
// authorization URL. An empty state is generated.
func (a *Adapter) LoginURL(ctx context.Context, redirectURL, state string) (string, error) {
	if err := a.checkReady(); err != nil {
		return "", err
	}
	if state == "" {
		state = rand.Text()
	}
	nonce := rand.Text()

	if err := a.store.SetState(ctx, a.cfg.ID, state, nonce); err != nil {
		return "", errors.NewStoreError("failed to store authorization state", err)
	}

	return a.oauth2Config(redirectURL).AuthCodeURL(state, oidc.Nonce(nonce)), nil
}

// providerError returns the error a provider reported on its callback, if any.
func providerError(q url.Values) error {
	providerErr := q.Get("error")
	if providerErr == "" {
		return nil
	}
	if desc := q.Get("error_description"); desc != "" {
		providerErr += ": " + desc
	}
	return errors.NewProtocolError("provider returned an error: "+providerErr, nil)
}

// Token completes the authorization code exchange for a provider callback.
// The state entry is consumed before any further step, so a state can only
// ever be redeemed once.
func (a *Adapter) Token(ctx context.Context, r *http.Request, redirectURL string) (*auth.TokenInfo, error) {
	if err := a.checkReady(); err != nil {
		return nil, err
	}

	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		if providerErr := providerError(q); providerErr != nil {
			return nil, providerErr
		}
		return nil, errors.NewProtocolError("no state", nil)
	}

	nonce, err := a.store.GetState(ctx, a.cfg.ID, state)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NewProtocolError("state not found, possibly expired", err)
		}
		return nil, errors.NewStoreError("failed to read authorization state", err)
	}
	if err := a.store.DeleteState(ctx, a.cfg.ID, state); err != nil {
		return nil, errors.NewStoreError("failed to consume authorization state", err)
	}

	if providerErr := providerError(q); providerErr != nil {
		return nil, providerErr
	}

	code := q.Get("code")
	if code == "" {
		return nil, errors.NewProtocolError("no authorization code", nil)
	}

	tok, err := a.oauth2Config(redirectURL).Exchange(oidc.ClientContext(ctx, a.httpClient), code)
	if err != nil {
		return nil, errors.NewProtocolError("failed to exchange authorization code", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.NewProtocolError("provider returned no access token", nil)
	}

	if granted, ok := tok.Extra("scope").(string); ok && granted != "" && a.requestsOpenID() {
		if !slices.Contains(strings.Fields(granted), oidc.ScopeOpenID) {
			return nil, errors.NewProtocolError("granted scope does not include openid", nil)
		}
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" && a.requestsOpenID() {
		return nil, errors.NewProtocolError("provider returned no id token", nil)
	}

	info := &auth.TokenInfo{ProviderID: a.cfg.ID, AccessToken: tok.AccessToken, IDToken: rawIDToken}
	var idExpiry time.Time
	if rawIDToken != "" {
		subject, expiry, err := a.checkIDToken(ctx, rawIDToken, nonce)
		if err != nil {
			return nil, errors.NewProtocolError("invalid id token", err)
		}
		info.Subject = subject
		idExpiry = expiry
	}
	info.ExpiresAt = expiresAt(tok, idExpiry)

	logger.Debugw("authorization code exchange successful",
		"provider", a.cfg.ID,
		"has_id_token", rawIDToken != "",
		"has_expiry", info.ExpiresAt != nil,
	)
	return info, nil
}

// checkIDToken validates the id token and returns its subject and expiry.
func (a *Adapter) checkIDToken(ctx context.Context, raw, nonce string) (string, time.Time, error) {
	var subject, tokenNonce string
	var expiry time.Time

	if a.verifier != nil {
		idt, err := a.verifier.Verify(oidc.ClientContext(ctx, a.httpClient), raw)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to verify ID token: %w", err)
		}
		subject, tokenNonce, expiry = idt.Subject, idt.Nonce, idt.Expiry
	} else {
		claims, err := ClaimsFromIDToken(raw)
		if err != nil {
			return "", time.Time{}, err
		}
		subject, _ = stringClaim(claims, "sub")
		tokenNonce, _ = stringClaim(claims, "nonce")
		expiry, _ = timeValue(claims["exp"])
	}

	if nonce != "" {
		if tokenNonce == "" {
			return "", time.Time{}, ErrNonceMissing
		}
		if tokenNonce != nonce {
			return "", time.Time{}, ErrNonceMismatch
		}
	}
	return subject, expiry, nil
}

// expiresAt picks the credential expiry: an explicit expires_at field, then
// the expires_in offset, then the id token's exp claim.
func expiresAt(tok *oauth2.Token, idExpiry time.Time) *time.Time {
	if t, ok := timeValue(tok.Extra("expires_at")); ok {
		return &t
	}
	if !tok.Expiry.IsZero() {
		t := tok.Expiry
		return &t
	}
	if !idExpiry.IsZero() {
		return &idExpiry
	}
	return nil
}

// cacheKey identifies a token in the userinfo and group caches.
func cacheKey(info *auth.TokenInfo) string {
	if info.Subject != "" {
		return info.Subject
	}
	sum := sha256.Sum256(info.Fingerprint())
	return hex.EncodeToString(sum[:])
}
