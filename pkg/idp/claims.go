// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidIDToken is returned for id tokens that cannot be decoded.
var ErrInvalidIDToken = errors.New("invalid id token")

// ClaimsFromIDToken decodes the payload of a compact JWT without verifying
// its signature.
func ClaimsFromIDToken(raw string) (map[string]any, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidIDToken, len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidIDToken)
	}
	return claims, nil
}

// stringClaim returns claims[name] when it is a non-empty string.
func stringClaim(claims map[string]any, name string) (string, bool) {
	s, ok := claims[name].(string)
	return s, ok && s != ""
}

// groupsClaim reads a groups claim that is either a list of strings or a
// single string.
func groupsClaim(claims map[string]any, name string) ([]string, bool) {
	switch v := claims[name].(type) {
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok && s != "" {
				groups = append(groups, s)
			}
		}
		return groups, true
	case []string:
		return v, true
	case string:
		if v == "" {
			return []string{}, true
		}
		return []string{v}, true
	default:
		return nil, false
	}
}

// timeValue converts a numeric date (seconds since epoch) in any of the
// representations JSON or form decoding produce.
func timeValue(v any) (time.Time, bool) {
	var secs int64
	switch n := v.(type) {
	case float64:
		secs = int64(n)
	case int64:
		secs = n
	case int:
		secs = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return time.Time{}, false
		}
		secs = i
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		secs = i
	default:
		return time.Time{}, false
	}
	if secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
