// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the definition of the regoidc configuration and
// the logic required to load, default and validate it.
package config

import (
	"time"
)

// Defaults applied by Load when the corresponding setting is absent.
const (
	DefaultProviderID    = "openid"
	DefaultUsernameClaim = "preferred_username"
	DefaultGroupsClaim   = "groups"
	DefaultCLIPort       = 8239

	DefaultUITokenTTL  = 7 * 24 * time.Hour
	DefaultNpmTokenTTL = 30 * 24 * time.Hour

	DefaultStateTTL        = 1 * time.Minute
	DefaultUserInfoTTL     = 5 * time.Minute
	DefaultGroupsTTL       = 5 * time.Minute
	DefaultPendingTokenTTL = 1 * time.Minute

	DefaultRedisKeyPrefix = "regoidc:"

	DefaultGitLabHost = "https://gitlab.com"
	DefaultGitHubHost = "https://api.github.com"
)

// DefaultScopes are requested when a provider configures none.
var DefaultScopes = []string{"openid", "profile", "email", "groups"}

// Provider types that enable a vendor group API.
const (
	ProviderTypeGitLab = "gitlab"
	ProviderTypeGitHub = "github"
)

// Security modes for npm tokens.
const (
	SecurityModeSigned = "signed"
	SecurityModeLegacy = "legacy"
)

// Store backend types.
const (
	StoreTypeMemory = "memory"
	StoreTypeFile   = "file"
	StoreTypeRedis  = "redis"
)

// Config is the root of the regoidc configuration file.
type Config struct {
	// BaseURL is the public URL of the registry, used to build callback and
	// polling URLs.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Providers lists the identity providers. The first one is the default
	// used by routes that carry no provider id.
	Providers []ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`

	// AuthorizedGroups is the login policy: false, true or a list of names.
	AuthorizedGroups GroupPolicy `yaml:"authorized_groups"`

	// GroupUsers statically declares group membership (group -> usernames).
	GroupUsers map[string][]string `yaml:"group_users"`

	// Packages mirrors the registry's package access rules. Only the group
	// names are used, to decide which provider groups are worth keeping.
	Packages PackageRules `yaml:"packages"`

	Security SecurityConfig `yaml:"security"`
	Store    StoreConfig    `yaml:"store"`

	// CLIPort is the loopback port the CLI flow redirects to.
	CLIPort int `yaml:"cli_port" validate:"gte=0,lte=65535"`
}

// ProviderConfig configures one OIDC identity provider.
type ProviderConfig struct {
	ID     string `yaml:"id" validate:"required,ne=cli,excludesall=/?#"`
	Issuer string `yaml:"issuer" validate:"required,url"`

	// Endpoint overrides. When authorization, token and userinfo endpoints
	// are all set, discovery is skipped.
	AuthorizationEndpoint string `yaml:"authorization_endpoint" validate:"omitempty,url"`
	TokenEndpoint         string `yaml:"token_endpoint" validate:"omitempty,url"`
	UserinfoEndpoint      string `yaml:"userinfo_endpoint" validate:"omitempty,url"`
	JWKSURI               string `yaml:"jwks_uri" validate:"omitempty,url"`

	ClientID     string   `yaml:"client_id" validate:"required"`
	ClientSecret string   `yaml:"client_secret" validate:"required"`
	Scopes       []string `yaml:"scopes"`

	UsernameClaim string `yaml:"username_claim" validate:"required"`
	GroupsClaim   string `yaml:"groups_claim" validate:"required"`

	// ProviderType enables a vendor group API whose groups override the
	// claims-based groups.
	ProviderType string `yaml:"provider_type" validate:"omitempty,oneof=gitlab github"`
	// ProviderHost is the vendor API base URL.
	ProviderHost string `yaml:"provider_host" validate:"omitempty,url"`
}

// HasStaticEndpoints reports whether discovery can be skipped.
func (p *ProviderConfig) HasStaticEndpoints() bool {
	return p.AuthorizationEndpoint != "" && p.TokenEndpoint != "" && p.UserinfoEndpoint != ""
}

// SecurityConfig configures the registry tokens.
type SecurityConfig struct {
	// Mode selects the npm token format: "signed" (JWT) or "legacy"
	// (encrypted envelope).
	Mode string `yaml:"mode" validate:"oneof=signed legacy"`

	// Secret is the registry secret used to sign and encrypt tokens.
	Secret string `yaml:"secret" validate:"required,min=16"`

	UITokenTTL  time.Duration `yaml:"ui_token_ttl" validate:"gt=0"`
	NpmTokenTTL time.Duration `yaml:"npm_token_ttl" validate:"gt=0"`
}

// StoreConfig selects and configures the correlation store backend.
type StoreConfig struct {
	Type  string           `yaml:"type" validate:"oneof=memory file redis"`
	TTL   TTLConfig        `yaml:"ttl"`
	File  FileStoreConfig  `yaml:"file"`
	Redis RedisStoreConfig `yaml:"redis"`

	// CleanupInterval is how often the memory backend sweeps expired
	// entries. Zero uses the backend default.
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gte=0"`
}

// TTLConfig holds the per-category lifetimes of store entries.
type TTLConfig struct {
	State        time.Duration `yaml:"state" validate:"gt=0"`
	UserInfo     time.Duration `yaml:"userinfo" validate:"gt=0"`
	Groups       time.Duration `yaml:"groups" validate:"gt=0"`
	PendingToken time.Duration `yaml:"pending_token" validate:"gt=0"`
}

// FileStoreConfig configures the on-disk backend.
type FileStoreConfig struct {
	// Path of the JSON document. Empty selects a file in the XDG cache dir.
	Path string `yaml:"path"`
}

// RedisStoreConfig configures the clustered backend. Either Addr or
// MasterName with SentinelAddrs must be set.
type RedisStoreConfig struct {
	Addr          string   `yaml:"addr"`
	MasterName    string   `yaml:"master_name"`
	SentinelAddrs []string `yaml:"sentinel_addrs"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	DB            int      `yaml:"db" validate:"gte=0"`
	KeyPrefix     string   `yaml:"key_prefix"`
}

// DefaultProvider returns the provider used when a route carries no id.
func (c *Config) DefaultProvider() *ProviderConfig {
	if len(c.Providers) == 0 {
		return nil
	}
	return &c.Providers[0]
}
