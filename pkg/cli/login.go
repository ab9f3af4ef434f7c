// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the client side of the CLI login flow: a
// single-shot loopback HTTP listener that receives the registry's final
// redirect.
package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"

	"github.com/stacklok/regoidc/pkg/logger"
)

// AuthorizePath is the registry route that starts the CLI flow.
const AuthorizePath = "/-/oauth/authorize/cli"

// Result is what the registry reported to the loopback listener.
type Result struct {
	Status   string
	Username string
	Token    string
	Message  string
}

// Err returns nil for a successful login and a descriptive error otherwise.
func (r *Result) Err() error {
	switch r.Status {
	case "success":
		if r.Token == "" {
			return errors.New("registry reported success without a token")
		}
		return nil
	case "denied":
		return fmt.Errorf("access denied: %s", r.Message)
	case "":
		return errors.New("registry redirect carried no status")
	default:
		return fmt.Errorf("login failed: %s", r.Message)
	}
}

// Listener receives exactly one login result on a loopback port.
type Listener struct {
	ln     net.Listener
	server *http.Server
	result chan *Result
	once   sync.Once
}

// Listen binds the loopback listener. Port 0 picks a free port.
func Listen(port int) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on loopback port %d: %w", port, err)
	}

	l := &Listener{
		ln:     ln,
		result: make(chan *Result, 1),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.handle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnw("loopback listener stopped", "error", err)
		}
	}()
	return l, nil
}

// Port returns the bound port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Wait blocks until the registry redirect arrives or ctx is done.
func (l *Listener) Wait(ctx context.Context) (*Result, error) {
	select {
	case r := <-l.result:
		return r, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("login cancelled: %w", ctx.Err())
	}
}

// Close shuts the listener down. The port is released when Close returns.
func (l *Listener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := l.server.Shutdown(ctx)

	// Shutdown only closes listeners Serve has started tracking.
	if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Join(shutdownErr, err)
	}
	return shutdownErr
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	res := &Result{
		Status:   q.Get("status"),
		Username: q.Get("username"),
		Token:    q.Get("token"),
		Message:  q.Get("message"),
	}

	setSecurityHeaders(w)
	if err := res.Err(); err != nil {
		fmt.Fprintf(w, page, "Login failed", html.EscapeString(err.Error()))
	} else {
		fmt.Fprintf(w, page, "Login successful",
			"Logged in as "+html.EscapeString(res.Username)+". You can close this window.")
	}

	l.once.Do(func() {
		l.result <- res
	})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
}

const page = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>regoidc</title></head>
<body><h1>%s</h1><p>%s</p></body>
</html>
`

// Options configures Login.
type Options struct {
	// Port is the loopback port the registry redirects to. It must match
	// the registry's cli_port.
	Port int

	// NoBrowser prints the URL instead of opening a browser.
	NoBrowser bool

	// OpenURL opens the browser. Defaults to browser.OpenURL.
	OpenURL func(url string) error

	// Prompt is called with the URL the user has to visit.
	Prompt func(url string)
}

// Login runs the CLI flow against a registry and returns the result.
func Login(ctx context.Context, registryURL string, opts Options) (*Result, error) {
	l, err := Listen(opts.Port)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Warnw("failed to shut down loopback listener", "error", err)
		}
	}()

	authURL := strings.TrimRight(registryURL, "/") + AuthorizePath

	if opts.Prompt != nil {
		opts.Prompt(authURL)
	}
	if !opts.NoBrowser {
		open := opts.OpenURL
		if open == nil {
			open = browser.OpenURL
		}
		if err := open(authURL); err != nil {
			logger.Warnw("failed to open browser", "error", err)
		}
	}

	res, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return res, res.Err()
}
