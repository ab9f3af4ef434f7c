// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/storage"
)

// pollInterval is the Retry-After value sent to a polling npm client.
const pollInterval = 5

// loginResponse is the body of POST /-/v1/login.
type loginResponse struct {
	LoginURL string `json:"loginUrl"`
	DoneURL  string `json:"doneUrl"`
}

// WebAuthLoginHandler handles POST /-/v1/login.
// It opens a session and tells npm where to send the user and where to poll.
func (c *Controller) WebAuthLoginHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()

	if err := c.store.SetPendingToken(r.Context(), sessionID, storage.PendingMarker); err != nil {
		logger.Errorw("failed to open web login session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start login"})
		return
	}

	logger.Debugw("web login session opened", "session", sessionID)

	writeJSON(w, http.StatusOK, loginResponse{
		LoginURL: c.url(WebAuthLoginPath + "/" + url.PathEscape(sessionID)),
		DoneURL:  c.url(WebAuthDonePath + "?" + url.Values{"state": {sessionID}}.Encode()),
	})
}

// WebAuthRedirectHandler handles GET /-/v1/login/{sessionID}.
// The session id doubles as the OAuth state, which is how the callback
// finds the session again.
func (c *Controller) WebAuthRedirectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	value, err := c.store.GetPendingToken(ctx, sessionID)
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		renderPage(w, http.StatusForbidden, "Login failed", "This login session has expired. Run npm login again.")
		return
	case err != nil:
		c.webAuthFailed(w, errors.NewStoreError("failed to read login session", err))
		return
	case value != storage.PendingMarker:
		renderPage(w, http.StatusForbidden, "Login failed", "This login session has already been completed.")
		return
	}

	loginURL, err := c.defaultProvider().LoginURL(ctx, c.url(WebAuthCallbackPath), sessionID)
	if err != nil {
		c.webAuthFailed(w, err)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// WebAuthCallbackHandler handles GET /-/v1/login/callback.
// On success the npm token replaces the pending marker; on failure the
// session is removed so the poller sees it expire. A callback whose state
// the provider rejected leaves the session alone.
func (c *Controller) WebAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("state")
	p := c.defaultProvider()

	info, err := p.Token(ctx, r, c.url(WebAuthCallbackPath))
	if err != nil {
		c.webAuthFailed(w, err)
		return
	}

	l, err := c.resolveLogin(ctx, p, info)
	if err == nil {
		var npmToken string
		npmToken, err = c.authz.IssueNpmToken(l.user, l.info)
		if err == nil {
			err = c.store.SetPendingToken(ctx, sessionID, npmToken)
			if err != nil {
				err = errors.NewStoreError("failed to store npm token", err)
			}
		}
	}

	if err != nil {
		if sessionID != "" {
			if delErr := c.store.DeletePendingToken(ctx, sessionID); delErr != nil {
				logger.Warnw("failed to delete web login session", "error", delErr)
			}
		}
		c.webAuthFailed(w, err)
		return
	}

	c.metrics.record(flowWebAuth, statusSuccess)
	renderPage(w, http.StatusOK, "Login successful",
		"You are logged in as "+l.user.Name+". You can close this window and return to the terminal.")
}

// WebAuthDoneHandler handles GET /-/v1/done?state=...
// It is polled by npm until the session yields a token or expires. A token
// is handed out once; the session is deleted after a successful read.
func (c *Controller) WebAuthDoneHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("state")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no state"})
		return
	}

	value, err := c.store.GetPendingToken(ctx, sessionID)
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "session expired"})
		return
	case err != nil:
		logger.Errorw("failed to read web login session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read session"})
		return
	case value == storage.PendingMarker:
		w.Header().Set("Retry-After", strconv.Itoa(pollInterval))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}

	if err := c.store.DeletePendingToken(ctx, sessionID); err != nil {
		logger.Warnw("failed to delete web login session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": value})
}

func (c *Controller) webAuthFailed(w http.ResponseWriter, err error) {
	logFailure(flowWebAuth, err)
	c.metrics.record(flowWebAuth, outcome(err))
	renderError(w, err)
}
