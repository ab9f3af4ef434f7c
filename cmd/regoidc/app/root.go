// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the regoidc command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/regoidc/pkg/logger"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "regoidc",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "OpenID Connect login for a private npm registry",
		Long: `regoidc adds OpenID Connect authentication to a private package registry.
It serves the browser, npm web-auth and CLI login flows and issues registry
tokens for users whose provider groups pass the configured policy.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("debug", cmd.Flags().Lookup("debug")); err != nil {
				return err
			}
			// Re-read the debug flag now that it is bound.
			logger.Initialize()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLoginCmd())

	return rootCmd
}
