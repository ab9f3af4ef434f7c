// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idp

import (
	"context"
	"fmt"
)

// gitLabMaxPages caps pagination for users in very many groups.
const gitLabMaxPages = 20

// gitLabGroups lists the groups a GitLab user is at least a guest of, by
// full path (e.g. "org/team").
type gitLabGroups struct {
	api *vendorAPI
}

func (*gitLabGroups) Name() string {
	return "gitlab"
}

func (g *gitLabGroups) Groups(ctx context.Context, accessToken string) ([]string, error) {
	var groups []string
	page := "1"
	for i := 0; i < gitLabMaxPages && page != ""; i++ {
		var batch []struct {
			FullPath string `json:"full_path"`
		}
		path := fmt.Sprintf("/api/v4/groups?min_access_level=10&per_page=100&page=%s", page)
		header, err := g.api.getJSON(ctx, accessToken, path, &batch)
		if err != nil {
			return nil, fmt.Errorf("gitlab: %w", err)
		}
		for _, b := range batch {
			groups = append(groups, b.FullPath)
		}
		page = header.Get("X-Next-Page")
	}
	return groups, nil
}
