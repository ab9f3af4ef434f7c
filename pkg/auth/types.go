// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package auth holds the identity types passed between the identity provider
// adapter, the authorization core, the token issuer and the flow controllers.
package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// TokenInfo is the credential bundle issued by the identity provider.
type TokenInfo struct {
	// ProviderID is the id of the provider that issued the credential.
	ProviderID string `json:"provider,omitempty"`

	// Subject is the provider's stable identifier for the user (sub claim).
	// Empty when the provider returned no id token and no subject.
	Subject string `json:"subject,omitempty"`

	// AccessToken is the provider access token. Always present.
	AccessToken string `json:"access_token"`

	// IDToken is the raw OIDC id token, if the provider returned one.
	IDToken string `json:"id_token,omitempty"`

	// ExpiresAt is when the provider credential expires, if it could be
	// determined.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// String redacts the credentials so a TokenInfo can be logged safely.
func (t *TokenInfo) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("TokenInfo{Subject:%q, HasIDToken:%t}", t.Subject, t.IDToken != "")
}

// Fingerprint returns the JSON encoding used to derive cache keys for tokens
// that carry no subject.
func (t *TokenInfo) Fingerprint() []byte {
	// Marshalling a struct of strings and a time cannot fail.
	b, _ := json.Marshal(t)
	return b
}

// ProviderUser is the identity resolved from the provider's claims.
type ProviderUser struct {
	// Name is the registry username derived from the configured claim.
	Name string `json:"name"`

	// Groups are the provider-asserted groups. Nil when the provider
	// asserted none.
	Groups []string `json:"groups,omitempty"`
}

// AuthenticatedUser is the registry's view of a logged-in user. It is the
// only identity representation that is ever written into issued tokens.
type AuthenticatedUser struct {
	// Name is the registry username.
	Name string `json:"name"`

	// RealGroups is sorted, deduplicated and always contains Name.
	RealGroups []string `json:"real_groups"`
}
