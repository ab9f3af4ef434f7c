// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/regoidc/pkg/errors"
)

// envOverrides are settings that may be supplied through the environment so
// secrets stay out of the configuration file.
type envOverrides struct {
	BaseURL       string `env:"REGOIDC_BASE_URL"`
	ClientID      string `env:"REGOIDC_CLIENT_ID"`
	ClientSecret  string `env:"REGOIDC_CLIENT_SECRET"`
	Secret        string `env:"REGOIDC_SECRET"`
	RedisPassword string `env:"REGOIDC_REDIS_PASSWORD"`
}

// Load reads, defaults and validates the configuration file at path, applying
// overrides from the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	// #nosec G304 - the path is supplied by the operator
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	return Parse(data, environ)
}

// Parse decodes a YAML document into a Config, then applies environment
// overrides and defaults and validates the result.
func Parse(data []byte, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to parse config", err)
	}

	if err := cfg.applyEnv(environ); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return errors.NewConfigurationError("failed to parse environment", err)
	}

	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Secret != "" {
		c.Security.Secret = o.Secret
	}
	if o.RedisPassword != "" {
		c.Store.Redis.Password = o.RedisPassword
	}
	if o.ClientID != "" || o.ClientSecret != "" {
		// Credentials from the environment belong to the default provider,
		// which may not be declared in the file at all.
		if len(c.Providers) == 0 {
			c.Providers = append(c.Providers, ProviderConfig{})
		}
		if o.ClientID != "" {
			c.Providers[0].ClientID = o.ClientID
		}
		if o.ClientSecret != "" {
			c.Providers[0].ClientSecret = o.ClientSecret
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.ID == "" && i == 0 {
			p.ID = DefaultProviderID
		}
		if len(p.Scopes) == 0 {
			p.Scopes = slices.Clone(DefaultScopes)
		}
		if p.UsernameClaim == "" {
			p.UsernameClaim = DefaultUsernameClaim
		}
		if p.GroupsClaim == "" {
			p.GroupsClaim = DefaultGroupsClaim
		}
		if p.ProviderHost == "" {
			switch p.ProviderType {
			case ProviderTypeGitLab:
				p.ProviderHost = DefaultGitLabHost
			case ProviderTypeGitHub:
				p.ProviderHost = DefaultGitHubHost
			}
		}
	}

	if c.Security.Mode == "" {
		c.Security.Mode = SecurityModeSigned
	}
	if c.Security.UITokenTTL == 0 {
		c.Security.UITokenTTL = DefaultUITokenTTL
	}
	if c.Security.NpmTokenTTL == 0 {
		c.Security.NpmTokenTTL = DefaultNpmTokenTTL
	}

	if c.Store.Type == "" {
		c.Store.Type = StoreTypeMemory
	}
	if c.Store.TTL.State == 0 {
		c.Store.TTL.State = DefaultStateTTL
	}
	if c.Store.TTL.UserInfo == 0 {
		c.Store.TTL.UserInfo = DefaultUserInfoTTL
	}
	if c.Store.TTL.Groups == 0 {
		c.Store.TTL.Groups = DefaultGroupsTTL
	}
	if c.Store.TTL.PendingToken == 0 {
		c.Store.TTL.PendingToken = DefaultPendingTokenTTL
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if c.CLIPort == 0 {
		c.CLIPort = DefaultCLIPort
	}
}

// Validate checks the struct constraints and the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigurationError("invalid configuration", err)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if _, dup := seen[p.ID]; dup {
			return errors.NewConfigurationError(fmt.Sprintf("duplicate provider id %q", p.ID), nil)
		}
		seen[p.ID] = struct{}{}
		if p.ProviderType != "" && p.ProviderHost == "" {
			return errors.NewConfigurationError(fmt.Sprintf("provider %q: provider_host is required", p.ID), nil)
		}
	}

	if c.Store.Type == StoreTypeRedis {
		r := c.Store.Redis
		if r.Addr == "" && (r.MasterName == "" || len(r.SentinelAddrs) == 0) {
			return errors.NewConfigurationError("store.redis: addr or master_name with sentinel_addrs is required", nil)
		}
	}
	return nil
}
