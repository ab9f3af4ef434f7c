// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/logger"
)

// userAgent is sent on vendor API calls.
const userAgent = "regoidc"

// maxResponseSize bounds vendor API response bodies.
const maxResponseSize = 1 << 20

// GroupProvider lists the groups the holder of an access token belongs to,
// using a vendor API instead of OIDC claims.
type GroupProvider interface {
	// Name returns the provider type, e.g. "gitlab".
	Name() string
	// Groups returns the group names for the token holder.
	Groups(ctx context.Context, accessToken string) ([]string, error)
}

// NewGroupProvider returns the vendor group provider configured for p, or nil
// when p has no provider type.
func NewGroupProvider(p config.ProviderConfig, client *http.Client) (GroupProvider, error) {
	if client == nil {
		client = http.DefaultClient
	}
	api := &vendorAPI{
		client:  client,
		baseURL: strings.TrimSuffix(p.ProviderHost, "/"),
		// Vendor APIs allow a few thousand calls an hour; the local limit
		// only smooths install bursts.
		limiter: rate.NewLimiter(10, 20),
	}

	switch p.ProviderType {
	case "":
		return nil, nil
	case config.ProviderTypeGitLab:
		return &gitLabGroups{api: api}, nil
	case config.ProviderTypeGitHub:
		return &gitHubGroups{api: api}, nil
	default:
		return nil, fmt.Errorf("unexpected provider type %q", p.ProviderType)
	}
}

// vendorAPI performs authenticated, rate limited JSON GETs.
type vendorAPI struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// getJSON fetches path and decodes the body into out. It returns the
// response headers for pagination.
func (v *vendorAPI) getJSON(ctx context.Context, accessToken, path string, out any) (http.Header, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debugf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		logger.Warnw("vendor rate limit exceeded", "path", path, "retry_after", retryAfter)
		return nil, fmt.Errorf("rate limit exceeded, retry after: %s", retryAfter)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return resp.Header, nil
}
