// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"context"
	"fmt"
)

// gitHubGroups maps GitHub organizations and teams to groups. Organizations
// appear by login, teams as "org/team-slug".
type gitHubGroups struct {
	api *vendorAPI
}

func (*gitHubGroups) Name() string {
	return "github"
}

func (g *gitHubGroups) Groups(ctx context.Context, accessToken string) ([]string, error) {
	var orgs []struct {
		Login string `json:"login"`
	}
	if _, err := g.api.getJSON(ctx, accessToken, "/user/orgs?per_page=100", &orgs); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	var teams []struct {
		Slug         string `json:"slug"`
		Organization struct {
			Login string `json:"login"`
		} `json:"organization"`
	}
	if _, err := g.api.getJSON(ctx, accessToken, "/user/teams?per_page=100", &teams); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	groups := make([]string, 0, len(orgs)+len(teams))
	for _, o := range orgs {
		groups = append(groups, o.Login)
	}
	for _, t := range teams {
		groups = append(groups, t.Organization.Login+"/"+t.Slug)
	}
	return groups, nil
}
