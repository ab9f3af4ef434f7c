// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package plugin assembles the login flows, the identity providers and the
// correlation store into the unit a registry host loads. It exposes the
// routes to mount, the host authentication callback and a bearer token
// middleware.
package plugin

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/authz"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/flow"
	"github.com/stacklok/regoidc/pkg/idp"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/storage"
	"github.com/stacklok/regoidc/pkg/token"
)

// Plugin is a configured regoidc instance.
type Plugin struct {
	store      storage.Store
	adapters   []*idp.Adapter
	core       *authz.Core
	controller *flow.Controller
}

type options struct {
	httpClient *http.Client
	registerer prometheus.Registerer
	store      storage.Store
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the client used to talk to the identity providers.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithRegisterer sets the prometheus registry for the login metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithStore uses an existing store instead of building one from the
// configuration. The plugin takes ownership and closes it on Close.
func WithStore(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New wires a Plugin from the configuration. Provider discovery starts in
// the background; use Ready to wait for it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Plugin, error) {
	o := options{
		httpClient: http.DefaultClient,
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	issuer, err := token.NewIssuer(cfg.Security)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = storage.NewStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
	}

	p := &Plugin{
		store: store,
		core:  authz.NewCore(cfg, issuer),
	}

	providers := make([]flow.IdentityProvider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		a, err := idp.NewAdapter(ctx, pc, store, idp.WithHTTPClient(o.httpClient))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		p.adapters = append(p.adapters, a)
		providers = append(providers, a)
	}

	p.controller, err = flow.NewController(cfg, providers, p.core, store, flow.WithRegisterer(o.registerer))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Infow("regoidc plugin initialized",
		"providers", len(p.adapters),
		"security_mode", issuer.Mode(),
		"store", cfg.Store.Type,
	)
	return p, nil
}

// Ready blocks until every provider finished discovery and returns the
// first discovery error.
func (p *Plugin) Ready(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range p.adapters {
		g.Go(func() error {
			if err := a.Ready(ctx); err != nil {
				return fmt.Errorf("provider %q: %w", a.ID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RegisterMiddlewares mounts the login flow routes.
func (p *Plugin) RegisterMiddlewares(r chi.Router) {
	p.controller.Routes(r)
}

// Authenticate is the host's authentication callback: it checks an npm
// token presented as the password of username and returns the user's realm
// groups. An empty username accepts any token owner.
func (p *Plugin) Authenticate(ctx context.Context, username, secret string) ([]string, error) {
	user, err := p.verify(ctx, secret)
	if err != nil {
		return nil, err
	}
	if username != "" && username != user.Name {
		return nil, fmt.Errorf("%w: token was not issued to %q", authz.ErrAccessDenied, username)
	}
	return user.RealGroups, nil
}

// verify turns an npm token into the user it was issued to. Tokens that
// only carry a provider access token are resolved again through the
// provider that issued it.
func (p *Plugin) verify(ctx context.Context, secret string) (*auth.AuthenticatedUser, error) {
	claims, err := p.core.VerifyNpmToken(secret)
	if err != nil {
		return nil, err
	}

	switch c := claims.(type) {
	case *token.UserClaims:
		return &auth.AuthenticatedUser{Name: c.Name, RealGroups: c.Groups}, nil
	case *token.AccessTokenClaims:
		a, err := p.adapter(c.Provider)
		if err != nil {
			return nil, err
		}
		info := &auth.TokenInfo{ProviderID: a.ID(), Subject: c.Subject, AccessToken: c.AccessToken}
		providerUser, err := a.UserInfo(ctx, info)
		if err != nil {
			return nil, err
		}
		return p.core.ResolveUser(providerUser.Name, providerUser.Groups)
	default:
		return nil, token.ErrInvalidToken
	}
}

// adapter returns the adapter for a provider id. An empty id selects the
// default provider.
func (p *Plugin) adapter(id string) (*idp.Adapter, error) {
	if id == "" {
		return p.adapters[0], nil
	}
	for _, a := range p.adapters {
		if a.ID() == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: issued by unknown provider %q", token.ErrInvalidToken, id)
}

// Close releases the store.
func (p *Plugin) Close() error {
	if err := p.store.Close(); err != nil && !stderrors.Is(err, storage.ErrClosed) {
		return errors.NewStoreError("failed to close store", err)
	}
	return nil
}
