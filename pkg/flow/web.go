// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"net/http"
	"net/url"
)

// AuthorizeHandler handles GET /-/oauth/authorize[/{providerID}].
// It redirects the browser to the provider's authorization endpoint.
func (c *Controller) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	p, err := c.provider(r)
	if err != nil {
		c.webFailed(w, err)
		return
	}

	loginURL, err := p.LoginURL(r.Context(), c.callbackURL(p), "")
	if err != nil {
		c.webFailed(w, err)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// CallbackHandler handles GET /-/oauth/callback[/{providerID}].
// On success it sends the browser back to the registry UI with both tokens.
func (c *Controller) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	p, err := c.provider(r)
	if err != nil {
		c.webFailed(w, err)
		return
	}

	l, err := c.completeLogin(r, p, c.callbackURL(p))
	if err != nil {
		c.webFailed(w, err)
		return
	}

	uiToken, err := c.authz.IssueUIToken(l.user)
	if err != nil {
		c.webFailed(w, err)
		return
	}
	npmToken, err := c.authz.IssueNpmToken(l.user, l.info)
	if err != nil {
		c.webFailed(w, err)
		return
	}

	c.metrics.record(flowWeb, statusSuccess)

	q := url.Values{}
	q.Set("status", statusSuccess)
	q.Set("username", l.user.Name)
	q.Set("uiToken", uiToken)
	q.Set("npmToken", npmToken)
	http.Redirect(w, r, c.url("/?"+q.Encode()), http.StatusFound)
}

func (c *Controller) webFailed(w http.ResponseWriter, err error) {
	logFailure(flowWeb, err)
	c.metrics.record(flowWeb, outcome(err))
	renderError(w, err)
}
