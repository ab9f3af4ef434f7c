// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
	"net/http"
	"net/url"
)

// CLIAuthorizeHandler handles GET /-/oauth/authorize/cli.
func (c *Controller) CLIAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	loginURL, err := c.defaultProvider().LoginURL(r.Context(), c.url(CLICallbackPath), "")
	if err != nil {
		c.cliFailed(w, r, err)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// CLICallbackHandler handles GET /-/oauth/callback/cli.
// Every outcome ends in a redirect to the loopback listener of the login
// command.
func (c *Controller) CLICallbackHandler(w http.ResponseWriter, r *http.Request) {
	l, err := c.completeLogin(r, c.defaultProvider(), c.url(CLICallbackPath))
	if err != nil {
		c.cliFailed(w, r, err)
		return
	}

	npmToken, err := c.authz.IssueNpmToken(l.user, l.info)
	if err != nil {
		c.cliFailed(w, r, err)
		return
	}

	c.metrics.record(flowCLI, statusSuccess)

	q := url.Values{}
	q.Set("status", statusSuccess)
	q.Set("username", l.user.Name)
	q.Set("token", npmToken)
	http.Redirect(w, r, c.loopbackURL(q), http.StatusFound)
}

func (c *Controller) cliFailed(w http.ResponseWriter, r *http.Request, err error) {
	logFailure(flowCLI, err)
	status := outcome(err)
	c.metrics.record(flowCLI, status)

	q := url.Values{}
	q.Set("status", status)
	q.Set("message", publicMessage(err))
	http.Redirect(w, r, c.loopbackURL(q), http.StatusFound)
}

func (c *Controller) loopbackURL(q url.Values) string {
	return fmt.Sprintf("http://localhost:%d?%s", c.cliPort, q.Encode())
}
