// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/stacklok/regoidc/pkg/logger"
)

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

type pageData struct {
	Title   string
	Message string
}

// renderPage writes a minimal HTML status page.
func renderPage(w http.ResponseWriter, code int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := statusPage.Execute(w, pageData{Title: title, Message: message}); err != nil {
		logger.Warnw("failed to render status page", "error", err)
	}
}

// renderError renders the page matching a flow failure. Internal details
// are only shown for client-side failures.
func renderError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	switch code {
	case http.StatusForbidden:
		renderPage(w, code, "Access denied", "You are not a member of a group that may use this registry.")
	default:
		renderPage(w, code, "Login failed", publicMessage(err))
	}
}

// publicMessage is the error text shown to the user. Internal failures carry
// backend details and are replaced by a generic message.
func publicMessage(err error) string {
	if httpStatus(err) >= http.StatusInternalServerError {
		return internalErrorMessage
	}
	return err.Error()
}

const internalErrorMessage = "An internal error occurred. Please try again later."

// writeJSON encodes body as the JSON response.
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnw("failed to encode response", "error", err)
	}
}
