// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"net/http"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/logger"
)

// Values of the status redirect parameter.
const (
	statusSuccess = "success"
	statusDenied  = "denied"
	statusError   = "error"
)

// Flow names used as metric labels.
const (
	flowWeb     = "web"
	flowWebAuth = "webauth"
	flowCLI     = "cli"
)

// login is the result of a completed provider callback.
type login struct {
	user *auth.AuthenticatedUser
	info *auth.TokenInfo
}

// completeLogin runs the callback half shared by every flow: code exchange,
// identity resolution and the authorization decision.
func (c *Controller) completeLogin(r *http.Request, p IdentityProvider, redirectURL string) (*login, error) {
	ctx := r.Context()

	info, err := p.Token(ctx, r, redirectURL)
	if err != nil {
		return nil, err
	}
	return c.resolveLogin(ctx, p, info)
}

// resolveLogin resolves and authorizes the user behind an accepted callback.
func (c *Controller) resolveLogin(ctx context.Context, p IdentityProvider, info *auth.TokenInfo) (*login, error) {
	providerUser, err := p.UserInfo(ctx, info)
	if err != nil {
		return nil, err
	}

	user, err := c.authz.ResolveUser(providerUser.Name, providerUser.Groups)
	if err != nil {
		logger.Infow("login denied",
			"provider", p.ID(),
			"username", providerUser.Name,
		)
		return nil, err
	}

	logger.Infow("login succeeded",
		"provider", p.ID(),
		"username", user.Name,
		"groups", len(user.RealGroups),
	)
	return &login{user: user, info: info}, nil
}

// logFailure logs a flow failure at a level matching its severity.
func logFailure(flow string, err error) {
	if httpStatus(err) >= http.StatusInternalServerError {
		logger.Errorw("login flow failed", "flow", flow, "error", err)
		return
	}
	logger.Debugw("login flow rejected", "flow", flow, "error", err)
}
