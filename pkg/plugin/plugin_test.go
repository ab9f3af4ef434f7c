// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/authz"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/flow"
	"github.com/stacklok/regoidc/pkg/storage"
	"github.com/stacklok/regoidc/pkg/token"
)

const testAccessToken = "provider-access-token"

// userInfoServer serves a static userinfo document for testAccessToken.
type userInfoServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newUserInfoServer(t *testing.T) *userInfoServer {
	t.Helper()
	s := &userInfoServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":                "user-1",
			"preferred_username": "alice",
			"groups":             []string{"developers", "unrelated"},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestConfig(userInfoURL, mode string) *config.Config {
	return &config.Config{
		BaseURL: "https://registry.example.com",
		Providers: []config.ProviderConfig{{
			ID:                    config.DefaultProviderID,
			Issuer:                "https://idp.example.com",
			AuthorizationEndpoint: "https://idp.example.com/authorize",
			TokenEndpoint:         "https://idp.example.com/token",
			UserinfoEndpoint:      userInfoURL,
			ClientID:              "registry",
			ClientSecret:          "registry-secret",
			Scopes:                config.DefaultScopes,
			UsernameClaim:         config.DefaultUsernameClaim,
			GroupsClaim:           config.DefaultGroupsClaim,
		}},
		AuthorizedGroups: config.GroupPolicy{Kind: config.PolicyAnyGroup},
		Packages: config.PackageRules{
			{Pattern: "@team/*", Access: config.GroupList{"developers"}},
		},
		Security: config.SecurityConfig{
			Mode:   mode,
			Secret: "0123456789abcdef0123456789abcdef",
		},
		CLIPort: config.DefaultCLIPort,
	}
}

func newTestPlugin(t *testing.T, cfg *config.Config) *Plugin {
	t.Helper()

	store := storage.NewMemoryStore(config.TTLConfig{
		State:        time.Minute,
		UserInfo:     time.Minute,
		Groups:       time.Minute,
		PendingToken: time.Minute,
	})
	p, err := New(t.Context(), cfg, WithStore(store), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Ready(ctx))
	return p
}

func issueFor(t *testing.T, p *Plugin, name string, groups []string, info *auth.TokenInfo) string {
	t.Helper()
	user, err := p.core.ResolveUser(name, groups)
	require.NoError(t, err)
	raw, err := p.core.IssueNpmToken(user, info)
	require.NoError(t, err)
	return raw
}

func TestNew_InvalidSecurity(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig("https://idp.example.com/userinfo", config.SecurityModeSigned)
	cfg.Security.Secret = ""

	_, err := New(t.Context(), cfg, WithStore(storage.NewMemoryStore(config.TTLConfig{})))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestPlugin_AuthenticateSignedToken(t *testing.T) {
	t.Parallel()

	p := newTestPlugin(t, newTestConfig("https://idp.example.com/userinfo", config.SecurityModeSigned))
	raw := issueFor(t, p, "alice", []string{"developers"}, &auth.TokenInfo{AccessToken: "at"})

	groups, err := p.Authenticate(t.Context(), "alice", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "developers"}, groups)

	groups, err = p.Authenticate(t.Context(), "", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "developers"}, groups)

	_, err = p.Authenticate(t.Context(), "bob", raw)
	assert.ErrorIs(t, err, authz.ErrAccessDenied)

	_, err = p.Authenticate(t.Context(), "alice", "not-a-token")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestPlugin_AuthenticateAccessTokenShape(t *testing.T) {
	t.Parallel()

	srv := newUserInfoServer(t)
	p := newTestPlugin(t, newTestConfig(srv.URL, config.SecurityModeLegacy))

	// No expiry on the provider token selects the access-token envelope.
	raw := issueFor(t, p, "alice", []string{"developers"},
		&auth.TokenInfo{Subject: "user-1", AccessToken: testAccessToken})

	groups, err := p.Authenticate(t.Context(), "alice", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "developers"}, groups)

	// The second lookup is served from the userinfo cache.
	_, err = p.Authenticate(t.Context(), "alice", raw)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestPlugin_AuthenticateAccessTokenUsesIssuingProvider(t *testing.T) {
	t.Parallel()

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(rejecting.Close)
	srv := newUserInfoServer(t)

	cfg := newTestConfig(rejecting.URL, config.SecurityModeLegacy)
	second := cfg.Providers[0]
	second.ID = "second"
	second.Issuer = "https://idp2.example.com"
	second.UserinfoEndpoint = srv.URL
	cfg.Providers = append(cfg.Providers, second)
	p := newTestPlugin(t, cfg)

	raw := issueFor(t, p, "alice", []string{"developers"},
		&auth.TokenInfo{ProviderID: "second", Subject: "user-1", AccessToken: testAccessToken})

	groups, err := p.Authenticate(t.Context(), "alice", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "developers"}, groups)
	assert.Equal(t, int32(1), srv.calls.Load())

	unknown := issueFor(t, p, "alice", []string{"developers"},
		&auth.TokenInfo{ProviderID: "gone", Subject: "user-1", AccessToken: testAccessToken})
	_, err = p.Authenticate(t.Context(), "alice", unknown)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestPlugin_AuthenticateAccessTokenRejectedByProvider(t *testing.T) {
	t.Parallel()

	srv := newUserInfoServer(t)
	p := newTestPlugin(t, newTestConfig(srv.URL, config.SecurityModeLegacy))

	raw := issueFor(t, p, "alice", []string{"developers"},
		&auth.TokenInfo{Subject: "user-2", AccessToken: "revoked"})

	_, err := p.Authenticate(t.Context(), "alice", raw)
	require.Error(t, err)
}

func TestPlugin_BearerMiddleware(t *testing.T) {
	t.Parallel()

	p := newTestPlugin(t, newTestConfig("https://idp.example.com/userinfo", config.SecurityModeSigned))
	valid := issueFor(t, p, "alice", []string{"developers"}, &auth.TokenInfo{AccessToken: "at"})

	r := chi.NewRouter()
	r.Use(p.BearerMiddleware)
	r.Get("/-/whoami", WhoamiHandler)

	tests := []struct {
		name       string
		header     string
		wantCode   int
		wantBody   string
		wantChalng bool
	}{
		{name: "valid token", header: "Bearer " + valid, wantCode: http.StatusOK, wantBody: `{"username":"alice"}`},
		{name: "anonymous", wantCode: http.StatusUnauthorized, wantChalng: true},
		{name: "invalid token", header: "Bearer garbage", wantCode: http.StatusUnauthorized, wantChalng: true},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized, wantChalng: true},
		{name: "empty bearer", header: "Bearer ", wantCode: http.StatusUnauthorized, wantChalng: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/-/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantChalng {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestPlugin_RegisterMiddlewares(t *testing.T) {
	t.Parallel()

	p := newTestPlugin(t, newTestConfig("https://idp.example.com/userinfo", config.SecurityModeSigned))

	r := chi.NewRouter()
	p.RegisterMiddlewares(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, flow.WebAuthLoginPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["loginUrl"], "https://registry.example.com/-/v1/login/")
	assert.Contains(t, body["doneUrl"], "https://registry.example.com/-/v1/done?state=")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, flow.AuthorizePath, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://idp.example.com/authorize?")
}

func TestPlugin_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	p := newTestPlugin(t, newTestConfig("https://idp.example.com/userinfo", config.SecurityModeSigned))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
