// Package mcp builds the JSON descriptor external MCP-aware clients use to
// launch the firecrawl and tavily servers against balance-proxy's local
// listeners.
package mcp

import (
	"errors"
	"strings"

	"github.com/relaywave/balance-proxy/internal/config"
)

const (
	// TargetFirecrawl requests only the scrape provider's entry.
	TargetFirecrawl = "firecrawl"
	// TargetTavily requests only the search provider's entry.
	TargetTavily = "tavily"
	// TargetBoth requests every enabled provider's entry.
	TargetBoth = "both"
)

// ErrNoProvidersAvailable is returned when the requested target has no
// configured provider to describe.
var ErrNoProvidersAvailable = errors.New("no configured MCP providers are available for this target")

// server is one entry under "mcpServers" in the emitted payload.
type server struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Payload is the top-level MCP descriptor document.
type Payload struct {
	Servers map[string]server `json:"mcpServers"`
}

func firecrawlServer(cfg config.Config) server {
	return server{
		Command: "npx",
		Args:    []string{"-y", "firecrawl-mcp"},
		Env: map[string]string{
			"FIRECRAWL_API_URL": cfg.ListenURL(),
			"FIRECRAWL_API_KEY": cfg.ProxyToken,
		},
	}
}

func tavilyServer(cfg config.Config, launcher Launcher) server {
	return server{
		Command: launcher.Command,
		Args:    launcher.Args,
		Env: map[string]string{
			"TAVILY_API_URL": cfg.TavilyListenURL(),
			"TAVILY_API_KEY": cfg.ProxyToken,
		},
	}
}

// BuildPayload assembles the descriptor for the requested target. launcher
// is only consulted when a tavily entry is needed; pass a zero Launcher when
// tavily is not enabled. target is matched case-insensitively.
func BuildPayload(cfg config.Config, target string, launcher Launcher) (Payload, error) {
	if err := cfg.ValidateCommon(); err != nil {
		return Payload{}, err
	}
	if err := cfg.ValidateProviderCompleteness(); err != nil {
		return Payload{}, err
	}

	servers := make(map[string]server, 2)

	switch strings.ToLower(target) {
	case TargetBoth, "":
		if cfg.FirecrawlEnabled() {
			servers[TargetFirecrawl] = firecrawlServer(cfg)
		}
		if cfg.TavilyEnabled() {
			servers[TargetTavily] = tavilyServer(cfg, launcher)
		}
	case TargetFirecrawl:
		if !cfg.FirecrawlEnabled() {
			return Payload{}, errors.New("firecrawl is not fully configured")
		}
		servers[TargetFirecrawl] = firecrawlServer(cfg)
	case TargetTavily:
		if !cfg.TavilyEnabled() {
			return Payload{}, errors.New("tavily is not fully configured")
		}
		servers[TargetTavily] = tavilyServer(cfg, launcher)
	default:
		return Payload{}, errors.New("invalid MCP target, expected firecrawl/tavily/both")
	}

	if len(servers) == 0 {
		return Payload{}, ErrNoProvidersAvailable
	}

	return Payload{Servers: servers}, nil
}
