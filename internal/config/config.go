package config

import (
	"strconv"
	"strings"
)

// Provider names used throughout the proxy.
const (
	Firecrawl = "firecrawl"
	Tavily    = "tavily"
)

// Config is the complete, persisted balance-proxy configuration. Field names
// are lower-camel-case on disk (encoding/json's default for these struct
// tags), per spec.
type Config struct {
	ProxyToken            string   `json:"proxyToken"`
	FirecrawlAPIKeys      []string `json:"firecrawlApiKeys"`
	UpstreamBaseURL       string   `json:"upstreamBaseUrl"`
	TavilyAPIKeys         []string `json:"tavilyApiKeys"`
	TavilyUpstreamBaseURL string   `json:"tavilyUpstreamBaseUrl"`
	RequestTimeoutMS      int64    `json:"requestTimeoutMs"`
	KeyCooldownSeconds    int64    `json:"keyCooldownSeconds"`
	Host                  string   `json:"host"`
	Port                  int      `json:"port"`
	TavilyPort            int      `json:"tavilyPort"`
	// EnableHTTP2 turns on h2c (cleartext HTTP/2) for both listeners.
	// Supplemental knob, defaults off; see SPEC_FULL.md domain model.
	EnableHTTP2 bool `json:"enableHttp2"`
}

// Default returns the out-of-the-box configuration written on first run.
func Default() Config {
	return Config{
		ProxyToken:            "your-local-token",
		FirecrawlAPIKeys:      nil,
		UpstreamBaseURL:       "https://api.firecrawl.dev",
		TavilyAPIKeys:         nil,
		TavilyUpstreamBaseURL: "https://api.tavily.com",
		RequestTimeoutMS:      60_000,
		KeyCooldownSeconds:    60,
		Host:                  "127.0.0.1",
		Port:                  8787,
		TavilyPort:            8788,
	}
}

// FirecrawlEnabled reports whether the scrape provider is fully configured.
func (c *Config) FirecrawlEnabled() bool {
	return len(c.FirecrawlAPIKeys) > 0 && c.UpstreamBaseURL != ""
}

// TavilyEnabled reports whether the search provider is fully configured.
func (c *Config) TavilyEnabled() bool {
	return len(c.TavilyAPIKeys) > 0 && c.TavilyUpstreamBaseURL != ""
}

// Enabled reports whether the named provider is fully configured.
func (c *Config) Enabled(provider string) bool {
	switch provider {
	case Firecrawl:
		return c.FirecrawlEnabled()
	case Tavily:
		return c.TavilyEnabled()
	default:
		return false
	}
}

func (c *Config) firecrawlPartiallyConfigured() bool {
	return (len(c.FirecrawlAPIKeys) == 0) != (c.UpstreamBaseURL == "")
}

func (c *Config) tavilyPartiallyConfigured() bool {
	return (len(c.TavilyAPIKeys) == 0) != (c.TavilyUpstreamBaseURL == "")
}

// ListenURL is the scrape provider's advertised base URL.
func (c *Config) ListenURL() string {
	return "http://" + c.Host + ":" + strconv.Itoa(c.Port)
}

// TavilyListenURL is the search provider's advertised base URL.
func (c *Config) TavilyListenURL() string {
	return "http://" + c.Host + ":" + strconv.Itoa(c.TavilyPort)
}

// Normalize trims whitespace and trailing slashes, and splits/dedupes both
// key lists. Normalize is idempotent: Normalize(Normalize(c)) == Normalize(c).
func (c Config) Normalize() Config {
	c.ProxyToken = strings.TrimSpace(c.ProxyToken)
	c.Host = strings.TrimSpace(c.Host)
	c.UpstreamBaseURL = trimTrailingSlash(strings.TrimSpace(c.UpstreamBaseURL))
	c.TavilyUpstreamBaseURL = trimTrailingSlash(strings.TrimSpace(c.TavilyUpstreamBaseURL))
	c.FirecrawlAPIKeys = SplitAndDedupeKeys(c.FirecrawlAPIKeys)
	c.TavilyAPIKeys = SplitAndDedupeKeys(c.TavilyAPIKeys)
	return c
}

func trimTrailingSlash(s string) string {
	return strings.TrimRight(s, "/")
}

// SplitAndDedupeKeys splits each raw entry on commas and newlines, trims
// whitespace, drops empties, and removes duplicates while preserving first
// occurrence order.
func SplitAndDedupeKeys(raw []string) []string {
	deduped := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		for _, part := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		}) {
			key := strings.TrimSpace(part)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, key)
		}
	}
	return deduped
}

// ValidateCommon checks the fields shared by both providers. It returns the
// first violated invariant, matching the order spec'd in §4.2.
func (c *Config) ValidateCommon() error {
	if c.ProxyToken == "" {
		return ErrProxyTokenRequired
	}
	if c.RequestTimeoutMS <= 0 {
		return ErrTimeoutInvalid
	}
	if c.KeyCooldownSeconds <= 0 {
		return ErrCooldownInvalid
	}
	if c.Host == "" {
		return ErrHostRequired
	}
	if c.Port == c.TavilyPort {
		return ErrPortConflict
	}
	return nil
}

// ValidateProviderCompleteness checks that neither provider is half
// configured and that at least one is fully enabled.
func (c *Config) ValidateProviderCompleteness() error {
	if c.firecrawlPartiallyConfigured() {
		return ErrFirecrawlPartial
	}
	if c.tavilyPartiallyConfigured() {
		return ErrTavilyPartial
	}
	if !c.FirecrawlEnabled() && !c.TavilyEnabled() {
		return ErrNoProviderConfigured
	}
	return nil
}

// Validate runs both validation phases in order.
func (c *Config) Validate() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	return c.ValidateProviderCompleteness()
}

// Providers returns the provider names in a stable order, for iteration in
// the listener lifecycle and status builders.
func Providers() []string {
	return []string{Firecrawl, Tavily}
}
