// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authz reduces a provider identity to the registry's realm groups
// and decides whether the user may log in at all.
package authz

import (
	"errors"
	"fmt"
	"slices"

	"github.com/stacklok/regoidc/pkg/auth"
	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/token"
)

// ErrAccessDenied is returned when the authorized-groups policy rejects a
// user.
var ErrAccessDenied = errors.New("access denied")

// Core holds the authorization configuration. It is immutable and safe for
// concurrent use.
type Core struct {
	policy config.GroupPolicy

	// relevant holds every group worth keeping in a token: the groups named
	// by package rules and by the policy list.
	relevant map[string]struct{}

	// userGroups is the reverse index of the configured group -> users map.
	userGroups map[string][]string

	issuer *token.Issuer
}

// NewCore builds a Core from the loaded configuration.
func NewCore(cfg *config.Config, issuer *token.Issuer) *Core {
	c := &Core{
		policy:     cfg.AuthorizedGroups,
		relevant:   make(map[string]struct{}),
		userGroups: reverseIndex(cfg.GroupUsers),
		issuer:     issuer,
	}
	for _, g := range AllConfiguredGroups(cfg.Packages) {
		c.relevant[g] = struct{}{}
	}
	if cfg.AuthorizedGroups.Kind == config.PolicyNamed {
		for _, g := range cfg.AuthorizedGroups.Names {
			c.relevant[g] = struct{}{}
		}
	}
	return c
}

// Authenticate applies the authorized-groups policy. An empty username never
// passes.
func (c *Core) Authenticate(username string, groups []string) bool {
	if username == "" {
		return false
	}
	switch c.policy.Kind {
	case config.PolicyAnyGroup:
		return len(groups) > 0
	case config.PolicyNamed:
		return slices.Contains(c.policy.Names, username) ||
			slices.ContainsFunc(groups, func(g string) bool { return slices.Contains(c.policy.Names, g) })
	default:
		return true
	}
}

// FilterRealGroups keeps the groups the registry knows about, adds the
// username and returns the result sorted and deduplicated.
func (c *Core) FilterRealGroups(username string, groups []string) []string {
	out := make([]string, 0, len(groups)+1)
	for _, g := range groups {
		if _, ok := c.relevant[g]; ok {
			out = append(out, g)
		}
	}
	if username != "" {
		out = append(out, username)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// UserGroups returns the groups statically configured for username.
func (c *Core) UserGroups(username string) ([]string, bool) {
	groups, ok := c.userGroups[username]
	if !ok {
		return nil, false
	}
	return slices.Clone(groups), true
}

// ResolveUser turns a provider identity into an AuthenticatedUser. Statically
// configured membership replaces the provider groups.
func (c *Core) ResolveUser(username string, providerGroups []string) (*auth.AuthenticatedUser, error) {
	groups := providerGroups
	if static, ok := c.UserGroups(username); ok {
		groups = static
	}
	if !c.Authenticate(username, groups) {
		return nil, fmt.Errorf("%w: user %q is not in an authorized group", ErrAccessDenied, username)
	}
	return &auth.AuthenticatedUser{
		Name:       username,
		RealGroups: c.FilterRealGroups(username, groups),
	}, nil
}

// IssueUIToken delegates to the token issuer.
func (c *Core) IssueUIToken(user *auth.AuthenticatedUser) (string, error) {
	return c.issuer.IssueUIToken(user)
}

// IssueNpmToken delegates to the token issuer.
func (c *Core) IssueNpmToken(user *auth.AuthenticatedUser, info *auth.TokenInfo) (string, error) {
	return c.issuer.IssueNpmToken(user, info)
}

// VerifyUIToken delegates to the token issuer.
func (c *Core) VerifyUIToken(raw string) (*token.UserClaims, error) {
	return c.issuer.VerifyUIToken(raw)
}

// VerifyNpmToken delegates to the token issuer.
func (c *Core) VerifyNpmToken(raw string) (token.Claims, error) {
	return c.issuer.VerifyNpmToken(raw)
}

// AllConfiguredGroups lists every group named by the package rules in
// first-seen order. Matching is case-sensitive.
func AllConfiguredGroups(rules config.PackageRules) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(groups []string) {
		for _, g := range groups {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	for _, r := range rules {
		add(r.Access)
		add(r.Publish)
		add(r.Unpublish)
	}
	return out
}

func reverseIndex(groupUsers map[string][]string) map[string][]string {
	index := make(map[string][]string)
	groupNames := make([]string, 0, len(groupUsers))
	for g := range groupUsers {
		groupNames = append(groupNames, g)
	}
	slices.Sort(groupNames)

	for _, g := range groupNames {
		for _, u := range groupUsers[g] {
			if !slices.Contains(index[u], g) {
				index[u] = append(index[u], g)
			}
		}
	}
	return index
}
