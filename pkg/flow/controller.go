// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package flow implements the HTTP side of the three login flows: the
// browser redirect flow, the npm web-auth polling flow and the CLI loopback
// flow. Handlers never let an error escape; every outcome is rendered as a
// status page, a JSON body or a redirect.
package flow

//go:generate mockgen -destination=mocks/mock_flow.go -package=mocks -source=controller.go IdentityProvider,Authorizer

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/authz"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/storage"
)

// Route paths registered by Routes.
const (
	AuthorizePath    = "/-/oauth/authorize"
	CallbackPath     = "/-/oauth/callback"
	CLIAuthorizePath = "/-/oauth/authorize/cli"
	CLICallbackPath  = "/-/oauth/callback/cli"

	WebAuthLoginPath    = "/-/v1/login"
	WebAuthCallbackPath = "/-/v1/login/callback"
	WebAuthDonePath     = "/-/v1/done"
)

// IdentityProvider is the subset of the identity provider adapter the flows
// depend on.
type IdentityProvider interface {
	ID() string
	LoginURL(ctx context.Context, redirectURL, state string) (string, error)
	Token(ctx context.Context, r *http.Request, redirectURL string) (*auth.TokenInfo, error)
	UserInfo(ctx context.Context, info *auth.TokenInfo) (*auth.ProviderUser, error)
}

// Authorizer turns a provider identity into registry tokens.
type Authorizer interface {
	ResolveUser(username string, providerGroups []string) (*auth.AuthenticatedUser, error)
	IssueUIToken(user *auth.AuthenticatedUser) (string, error)
	IssueNpmToken(user *auth.AuthenticatedUser, info *auth.TokenInfo) (string, error)
}

// Controller serves the login flows for a set of providers.
type Controller struct {
	baseURL   string
	cliPort   int
	providers map[string]IdentityProvider
	// defaultID is used by the routes that carry no provider id.
	defaultID string
	authz     Authorizer
	store     storage.Store

	registerer prometheus.Registerer
	metrics    *metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithRegisterer sets the registry the login counter is registered with.
// The default is prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Controller) {
		c.registerer = reg
	}
}

// NewController creates a Controller. The first provider is the default.
func NewController(
	cfg *config.Config,
	providers []IdentityProvider,
	authorizer Authorizer,
	store storage.Store,
	opts ...Option,
) (*Controller, error) {
	if len(providers) == 0 {
		return nil, errors.NewConfigurationError("at least one identity provider is required", nil)
	}

	c := &Controller{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cliPort:    cfg.CLIPort,
		providers:  make(map[string]IdentityProvider, len(providers)),
		defaultID:  providers[0].ID(),
		authz:      authorizer,
		store:      store,
		registerer: prometheus.DefaultRegisterer,
	}
	for _, p := range providers {
		if _, dup := c.providers[p.ID()]; dup {
			return nil, errors.NewConfigurationError(fmt.Sprintf("duplicate provider id %q", p.ID()), nil)
		}
		c.providers[p.ID()] = p
	}

	for _, opt := range opts {
		opt(c)
	}

	m, err := newMetrics(c.registerer)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to register login metrics", err)
	}
	c.metrics = m

	return c, nil
}

// Routes registers the flow endpoints on the provided router.
func (c *Controller) Routes(r chi.Router) {
	// Static segments win over the {providerID} patterns in chi, so the CLI
	// routes must not be shadowed by a provider called "cli".
	r.Get(CLIAuthorizePath, c.CLIAuthorizeHandler)
	r.Get(CLICallbackPath, c.CLICallbackHandler)

	r.Get(AuthorizePath, c.AuthorizeHandler)
	r.Get(AuthorizePath+"/{providerID}", c.AuthorizeHandler)
	r.Get(CallbackPath, c.CallbackHandler)
	r.Get(CallbackPath+"/{providerID}", c.CallbackHandler)

	r.Post(WebAuthLoginPath, c.WebAuthLoginHandler)
	r.Get(WebAuthCallbackPath, c.WebAuthCallbackHandler)
	r.Get(WebAuthLoginPath+"/{sessionID}", c.WebAuthRedirectHandler)
	r.Get(WebAuthDonePath, c.WebAuthDoneHandler)
}

// provider returns the provider named by the route, or the default one.
func (c *Controller) provider(r *http.Request) (IdentityProvider, error) {
	id := chi.URLParam(r, "providerID")
	if id == "" {
		id = c.defaultID
	}
	p, ok := c.providers[id]
	if !ok {
		return nil, errors.NewProtocolError(fmt.Sprintf("unknown provider %q", id), nil)
	}
	return p, nil
}

func (c *Controller) defaultProvider() IdentityProvider {
	return c.providers[c.defaultID]
}

// url joins a path onto the public base URL.
func (c *Controller) url(path string) string {
	return c.baseURL + path
}

// callbackURL is the web flow redirect URL for a provider. The default
// provider uses the bare callback path.
func (c *Controller) callbackURL(p IdentityProvider) string {
	if p.ID() == c.defaultID {
		return c.url(CallbackPath)
	}
	return c.url(CallbackPath + "/" + p.ID())
}

// httpStatus maps a flow failure onto the status code of a browser
// response.
func httpStatus(err error) int {
	switch {
	case stderrors.Is(err, authz.ErrAccessDenied):
		return http.StatusForbidden
	case errors.IsProtocol(err):
		return http.StatusBadRequest
	case errors.IsIdentityResolution(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// outcome classifies err for metrics and redirect parameters.
func outcome(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case stderrors.Is(err, authz.ErrAccessDenied):
		return statusDenied
	default:
		return statusError
	}
}
