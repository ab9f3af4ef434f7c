// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/authz"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/token"
)

// BearerMiddleware verifies "Authorization: Bearer" npm tokens and stores
// the token owner in the request context. Requests without an Authorization
// header pass through anonymously.
func (p *Plugin) BearerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.ExtractBearerToken(r)
		if stderrors.Is(err, auth.ErrAuthHeaderMissing) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			unauthorized(w, err.Error())
			return
		}

		user, err := p.verify(r.Context(), raw)
		if err != nil {
			switch {
			case stderrors.Is(err, token.ErrInvalidToken), stderrors.Is(err, token.ErrTokenExpired),
				errors.IsIdentityResolution(err):
				unauthorized(w, err.Error())
			case stderrors.Is(err, authz.ErrAccessDenied):
				writeError(w, http.StatusForbidden, "access denied")
			default:
				logger.Errorw("failed to verify bearer token", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to verify token")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// WhoamiHandler handles GET /-/whoami for requests authenticated by
// BearerMiddleware.
func WhoamiHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Name})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnw("failed to encode response", "error", err)
	}
}
