// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/regoidc/pkg/cli"
	"github.com/stacklok/regoidc/pkg/config"
)

const loginTimeout = 5 * time.Minute

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a registry and print an npm token",
		Long: `Open the registry's CLI login page in a browser, wait for the registry to
redirect back to a local listener and print the resulting npm token.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range []string{"registry", "port", "no-browser"} {
				if err := viper.BindPFlag("login."+name, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: runLogin,
	}

	cmd.Flags().String("registry", "", "Registry base URL")
	cmd.Flags().Int("port", config.DefaultCLIPort, "Loopback port the registry redirects to")
	cmd.Flags().Bool("no-browser", false, "Print the login URL instead of opening a browser")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	registry := viper.GetString("login.registry")
	u, err := url.Parse(registry)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid registry URL %q", registry)
	}

	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	res, err := cli.Login(ctx, registry, cli.Options{
		Port:      viper.GetInt("login.port"),
		NoBrowser: viper.GetBool("login.no-browser"),
		Prompt: func(authURL string) {
			fmt.Fprintf(out, "Open this URL to log in: %s\n", authURL)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Logged in as %s\n", res.Username)
	fmt.Fprintf(out, "Token: %s\n\n", res.Token)
	fmt.Fprintln(out, "To use it with npm, run:")
	fmt.Fprintf(out, "  npm config set //%s/:_authToken %s\n", npmRegistryKey(u), res.Token)
	return nil
}

// npmRegistryKey is the registry part of an npm auth config key:
// host plus path, without scheme or trailing slash.
func npmRegistryKey(u *url.URL) string {
	return u.Host + strings.TrimRight(u.Path, "/")
}
