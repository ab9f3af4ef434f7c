// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/logger"
	"github.com/stacklok/regoidc/pkg/storage"
)

// Resolver is one strategy for turning a provider token into a user. A nil
// user with a nil error means the strategy does not apply and the next one
// should be tried.
type Resolver interface {
	Resolve(ctx context.Context, info *auth.TokenInfo) (*auth.ProviderUser, error)
}

// idTokenResolver reads the user straight from the id token claims. It only
// applies when both the username and the groups claim are present.
type idTokenResolver struct {
	usernameClaim string
	groupsClaim   string
}

func (r *idTokenResolver) Resolve(_ context.Context, info *auth.TokenInfo) (*auth.ProviderUser, error) {
	if info.IDToken == "" {
		return nil, nil
	}
	claims, err := ClaimsFromIDToken(info.IDToken)
	if err != nil {
		logger.Debugw("id token claims unavailable", "error", err)
		return nil, nil
	}
	return userFromClaims(claims, r.usernameClaim, r.groupsClaim, true), nil
}

// userInfoResolver calls the userinfo endpoint, going through the userinfo
// cache when the store has one.
type userInfoResolver struct {
	adapter *Adapter
}

func (r *userInfoResolver) Resolve(ctx context.Context, info *auth.TokenInfo) (*auth.ProviderUser, error) {
	claims, err := r.adapter.userInfoClaims(ctx, info)
	if err != nil {
		return nil, err
	}
	cfg := r.adapter.cfg
	return userFromClaims(claims, cfg.UsernameClaim, cfg.GroupsClaim, false), nil
}

// userFromClaims extracts a user. With requireGroups the groups claim must be
// present, otherwise nil is returned.
func userFromClaims(claims map[string]any, usernameClaim, groupsName string, requireGroups bool) *auth.ProviderUser {
	name, ok := stringClaim(claims, usernameClaim)
	if !ok {
		return nil
	}
	groups, hasGroups := groupsClaim(claims, groupsName)
	if requireGroups && !hasGroups {
		return nil
	}
	return &auth.ProviderUser{Name: name, Groups: groups}
}

// UserInfo resolves the provider user behind a token: id token claims first,
// then the userinfo endpoint. A configured vendor group provider replaces
// whatever groups those produced.
func (a *Adapter) UserInfo(ctx context.Context, info *auth.TokenInfo) (*auth.ProviderUser, error) {
	if err := a.checkReady(); err != nil {
		return nil, err
	}
	if info == nil || (info.AccessToken == "" && info.IDToken == "") {
		return nil, errors.NewIdentityResolutionError("no provider token to resolve", nil)
	}

	var user *auth.ProviderUser
	for _, r := range a.resolvers {
		u, err := r.Resolve(ctx, info)
		if err != nil {
			return nil, errors.NewIdentityResolutionError("failed to resolve user", err)
		}
		if u != nil {
			user = u
			break
		}
	}
	if user == nil || user.Name == "" {
		return nil, errors.NewIdentityResolutionError(
			fmt.Sprintf("could not resolve a username from claim %q", a.cfg.UsernameClaim), nil)
	}

	if a.groups != nil {
		groups, err := a.vendorGroups(ctx, info)
		if err != nil {
			return nil, errors.NewIdentityResolutionError(
				fmt.Sprintf("failed to fetch %s groups", a.groups.Name()), err)
		}
		user.Groups = groups
	}
	return user, nil
}

// userInfoClaims returns the userinfo claims for a token, cache first.
// Concurrent lookups for the same token share one request.
func (a *Adapter) userInfoClaims(ctx context.Context, info *auth.TokenInfo) (map[string]any, error) {
	key := cacheKey(info)
	cache, cacheable := a.store.(storage.UserInfoCache)
	if cacheable {
		claims, err := cache.GetUserInfo(ctx, a.cfg.ID, key)
		switch {
		case err == nil:
			return claims, nil
		case !stderrors.Is(err, storage.ErrNotFound):
			logger.Warnw("userinfo cache read failed", "provider", a.cfg.ID, "error", err)
		}
	}

	v, err, _ := a.lookups.Do("userinfo:"+key, func() (any, error) {
		return a.fetchUserInfo(ctx, info.AccessToken)
	})
	if err != nil {
		return nil, err
	}
	claims := v.(map[string]any)

	if cacheable {
		if err := cache.SetUserInfo(ctx, a.cfg.ID, key, claims); err != nil {
			logger.Warnw("userinfo cache write failed", "provider", a.cfg.ID, "error", err)
		}
	}
	return claims, nil
}

func (a *Adapter) fetchUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	if a.provider.UserInfoEndpoint() == "" {
		return nil, fmt.Errorf("provider %q has no userinfo endpoint", a.cfg.ID)
	}
	ctx = oidc.ClientContext(ctx, a.httpClient)
	ui, err := a.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	var claims map[string]any
	if err := ui.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo claims: %w", err)
	}
	return claims, nil
}

// vendorGroups returns the vendor groups for a token, cache first.
func (a *Adapter) vendorGroups(ctx context.Context, info *auth.TokenInfo) ([]string, error) {
	key := cacheKey(info)
	cache, cacheable := a.store.(storage.GroupsCache)
	if cacheable {
		groups, err := cache.GetUserGroups(ctx, a.cfg.ID, key)
		switch {
		case err == nil:
			return groups, nil
		case !stderrors.Is(err, storage.ErrNotFound):
			logger.Warnw("groups cache read failed", "provider", a.cfg.ID, "error", err)
		}
	}

	v, err, _ := a.lookups.Do("groups:"+key, func() (any, error) {
		return a.groups.Groups(ctx, info.AccessToken)
	})
	if err != nil {
		return nil, err
	}
	groups := slices.Clone(v.([]string))

	if cacheable {
		if err := cache.SetUserGroups(ctx, a.cfg.ID, key, groups); err != nil {
			logger.Warnw("groups cache write failed", "provider", a.cfg.ID, "error", err)
		}
	}
	return groups, nil
}
