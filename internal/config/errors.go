// Package config provides configuration loading, validation, and hot-reload
// notification for balance-proxy.
package config

import "errors"

// Validation errors, returned by Validate in the order spec'd: common fields
// first, then provider completeness. Validate short-circuits on the first
// failure rather than accumulating — callers (save_proxy_config) surface a
// single human-readable message, and the failure order is itself part of
// the contract tests assert against.
var (
	ErrProxyTokenRequired   = errors.New("config: proxy_token is required")
	ErrTimeoutInvalid       = errors.New("config: request_timeout_ms must be greater than 0")
	ErrCooldownInvalid      = errors.New("config: key_cooldown_seconds must be greater than 0")
	ErrHostRequired         = errors.New("config: host cannot be empty")
	ErrPortConflict         = errors.New("config: port and tavily_port must be different")
	ErrFirecrawlPartial     = errors.New("config: firecrawl is partially configured: firecrawl_api_keys and upstream_base_url must both be set")
	ErrTavilyPartial        = errors.New("config: tavily is partially configured: tavily_api_keys and tavily_upstream_base_url must both be set")
	ErrNoProviderConfigured = errors.New("config: at least one provider must be fully configured (firecrawl or tavily)")
)
