// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/storage"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
	testRedirectURI  = "https://registry.example.com/-/oauth/callback"
)

var testTTL = config.TTLConfig{
	State:        time.Minute,
	UserInfo:     5 * time.Minute,
	Groups:       5 * time.Minute,
	PendingToken: time.Minute,
}

// mockOIDCServer is an OIDC provider that signs id tokens with an RSA key
// and lets tests shape its token and userinfo responses.
type mockOIDCServer struct {
	*httptest.Server
	issuer     string
	privateKey *rsa.PrivateKey
	keyID      string

	mu sync.Mutex
	// nonce is echoed into issued id tokens.
	nonce string
	// idClaims are merged into issued id tokens.
	idClaims jwt.MapClaims
	// tokenExtra is merged into the token response.
	tokenExtra map[string]any
	// omitIDToken drops the id token from the token response.
	omitIDToken bool
	// userInfo is served by the userinfo endpoint.
	userInfo map[string]any

	userInfoCalls atomic.Int32
	// discoveryGate, when set, holds discovery until closed.
	discoveryGate chan struct{}
}

func newMockOIDCServer(t *testing.T) *mockOIDCServer {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	mock := &mockOIDCServer{
		privateKey: privateKey,
		keyID:      "test-key-1",
		idClaims:   jwt.MapClaims{"sub": "user-123"},
		userInfo:   map[string]any{"sub": "user-123"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", mock.handleDiscovery)
	mux.HandleFunc("/token", mock.handleToken)
	mux.HandleFunc("/userinfo", mock.handleUserInfo)
	mux.HandleFunc("/jwks", mock.handleJWKS)

	mock.Server = httptest.NewServer(mux)
	mock.issuer = mock.URL
	t.Cleanup(mock.Close)

	return mock
}

func (m *mockOIDCServer) providerConfig() config.ProviderConfig {
	return config.ProviderConfig{
		ID:            "openid",
		Issuer:        m.issuer,
		ClientID:      testClientID,
		ClientSecret:  testClientSecret,
		Scopes:        []string{"openid", "profile", "groups"},
		UsernameClaim: "preferred_username",
		GroupsClaim:   "groups",
	}
}

func (m *mockOIDCServer) set(fn func(m *mockOIDCServer)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *mockOIDCServer) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	gate := m.discoveryGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	doc := map[string]any{
		"issuer":                                m.issuer,
		"authorization_endpoint":                m.issuer + "/authorize",
		"token_endpoint":                        m.issuer + "/token",
		"userinfo_endpoint":                     m.issuer + "/userinfo",
		"jwks_uri":                              m.issuer + "/jwks",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// signIDToken signs claims with the server key, filling in the registered
// claims the verifier requires.
func (m *mockOIDCServer) signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	full := jwt.MapClaims{
		"iss": m.issuer,
		"aud": testClientID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		full[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, full)
	tok.Header["kid"] = m.keyID
	signed, err := tok.SignedString(m.privateKey)
	require.NoError(t, err)
	return signed
}

func (m *mockOIDCServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("code") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	if r.PostForm.Get("client_secret") != testClientSecret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := map[string]any{
		"access_token": "test-access-token",
		"token_type":   "Bearer",
	}
	if !m.omitIDToken {
		claims := jwt.MapClaims{
			"iss": m.issuer,
			"aud": testClientID,
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		if m.nonce != "" {
			claims["nonce"] = m.nonce
		}
		for k, v := range m.idClaims {
			claims[k] = v
		}
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = m.keyID
		signed, err := tok.SignedString(m.privateKey)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp["id_token"] = signed
	}
	for k, v := range m.tokenExtra {
		resp[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (m *mockOIDCServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	m.userInfoCalls.Add(1)
	if r.Header.Get("Authorization") != "Bearer test-access-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.userInfo)
}

func (m *mockOIDCServer) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": m.keyID,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(m.privateKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(m.privateKey.E)).Bytes()),
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jwks)
}

// newReadyAdapter creates an adapter against the mock and waits for
// discovery.
func newReadyAdapter(t *testing.T, cfg config.ProviderConfig, store storage.Store, opts ...Option) *Adapter {
	t.Helper()
	a, err := NewAdapter(context.Background(), cfg, store, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Ready(ctx))
	return a
}

func newTestStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore(testTTL)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// startLogin runs LoginURL and primes the mock with the generated nonce.
// It returns the state.
func startLogin(t *testing.T, a *Adapter, m *mockOIDCServer) string {
	t.Helper()
	raw, err := a.LoginURL(context.Background(), testRedirectURI, "")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	nonce := u.Query().Get("nonce")
	m.set(func(m *mockOIDCServer) { m.nonce = nonce })
	return u.Query().Get("state")
}

// callback builds a provider redirect carrying the given query.
func callback(query url.Values) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/-/oauth/callback?"+query.Encode(), nil)
}
