// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// legacyPayload is the envelope inside a legacy token. Exactly one of the two
// shapes is populated: username, groups and expiry, or subject and access
// token.
type legacyPayload struct {
	Username  string   `json:"username,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	ExpiresAt int64    `json:"expires_at,omitempty"`

	Subject     string `json:"sub,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// legacyCodec encrypts envelopes with JWE "dir" + A256GCM using
// SHA-256(secret) as the content key.
type legacyCodec struct {
	key []byte
	now func() time.Time
}

func newLegacyCodec(secret string, now func() time.Time) *legacyCodec {
	sum := sha256.Sum256([]byte(secret))
	return &legacyCodec{key: sum[:], now: now}
}

func (c *legacyCodec) encode(p legacyPayload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token payload: %w", err)
	}
	envelope := base64.StdEncoding.EncodeToString(body)

	encrypter, err := jose.NewEncrypter(jose.A256GCM,
		jose.Recipient{
			Algorithm: jose.DIRECT,
			Key:       c.key,
		},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("creating encrypter: %w", err)
	}

	obj, err := encrypter.Encrypt([]byte(envelope))
	if err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}
	return obj.CompactSerialize()
}

func (c *legacyCodec) decode(raw string) (Claims, error) {
	obj, err := jose.ParseEncryptedCompact(raw, []jose.KeyAlgorithm{jose.DIRECT}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	envelope, err := obj.Decrypt(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	body, err := base64.StdEncoding.DecodeString(string(envelope))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var p legacyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	switch {
	case p.AccessToken != "":
		return &AccessTokenClaims{Provider: p.Provider, Subject: p.Subject, AccessToken: p.AccessToken}, nil
	case p.Username != "" && p.ExpiresAt != 0:
		expiresAt := time.Unix(p.ExpiresAt, 0)
		if !c.now().Before(expiresAt) {
			return nil, ErrTokenExpired
		}
		return newUserClaims(p.Username, p.Groups, expiresAt), nil
	default:
		return nil, fmt.Errorf("%w: unrecognised payload", ErrInvalidToken)
	}
}
