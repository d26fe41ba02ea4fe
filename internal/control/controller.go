// Package control exposes balance-proxy's operations as a small set of
// typed commands, consumed directly by cmd/balance-proxy and suitable for a
// future UI to call in-process.
package control

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/relaywave/balance-proxy/internal/autostart"
	"github.com/relaywave/balance-proxy/internal/config"
	"github.com/relaywave/balance-proxy/internal/keypool"
	"github.com/relaywave/balance-proxy/internal/mcp"
	"github.com/relaywave/balance-proxy/internal/proxy"
	"github.com/relaywave/balance-proxy/internal/status"
)

// Controller wires the config store, listener lifecycle, and log ring
// together behind the control-command surface. One Controller is built per
// process and shared by every CLI command / future UI call.
type Controller struct {
	configPath string
	store      *config.Store
	lifecycle  *proxy.Lifecycle
	logs       *status.LogRing
	logger     zerolog.Logger
	autostart  autostart.Autostart
}

// New builds a Controller from an already-loaded config and its on-disk
// path. logs and logger are shared with the lifecycle so every sink sees
// every message.
func New(configPath string, cfg config.Config, logs *status.LogRing, logger zerolog.Logger, as autostart.Autostart) *Controller {
	return &Controller{
		configPath: configPath,
		store:      config.NewStore(cfg),
		lifecycle:  proxy.NewLifecycle(logger, logs),
		logs:       logs,
		logger:     logger,
		autostart:  as,
	}
}

// LoadConfig returns the current in-memory config snapshot.
func (c *Controller) LoadConfig() config.Config {
	return c.store.Get()
}

// SaveConfig normalizes, validates, and persists cfg, then swaps the
// in-memory snapshot. It never touches a running listener: an operator
// must Stop/Start to pick up the new keys or ports.
func (c *Controller) SaveConfig(cfg config.Config) (string, error) {
	normalized, err := config.Save(c.configPath, cfg)
	if err != nil {
		return "", err
	}
	c.store.Set(normalized)
	c.logs.Append(c.logger, "INFO", fmt.Sprintf("Config saved: %s", c.configPath))
	return c.configPath, nil
}

// Status reports the current proxy status.
func (c *Controller) Status() status.ProxyStatus {
	cfg := c.store.Get()
	return status.BuildStatus(&cfg, c.lifecycle.Running(config.Firecrawl), c.lifecycle.Running(config.Tavily))
}

// Start brings up every enabled, not-already-running listener and returns
// the resulting status. A bind failure on one provider does not prevent
// the other from starting.
func (c *Controller) Start(ctx context.Context) (status.ProxyStatus, error) {
	cfg := c.store.Get()
	startErr := c.lifecycle.Start(ctx, cfg)
	return c.Status(), startErr
}

// Stop shuts down every running listener and returns the resulting status.
func (c *Controller) Stop(ctx context.Context) (status.ProxyStatus, error) {
	stopErr := c.lifecycle.Stop(ctx)
	return c.Status(), stopErr
}

// RecentLogs returns the most recent log lines, oldest first.
func (c *Controller) RecentLogs() []string {
	return c.logs.Recent()
}

// KeyStatus returns the scrape provider's key statuses only, for callers
// written against the single-provider back-compat status command.
func (c *Controller) KeyStatus() []keypool.KeyStatus {
	return c.KeyStatusSnapshot().Firecrawl.Keys
}

// KeyStatusSnapshot returns both providers' key health.
func (c *Controller) KeyStatusSnapshot() status.KeyStatusSnapshot {
	cfg := c.store.Get()
	firecrawl := status.BuildProviderKeyStatus(cfg.FirecrawlEnabled(), c.lifecycle.KeyManager(config.Firecrawl), cfg.FirecrawlAPIKeys)
	tavily := status.BuildProviderKeyStatus(cfg.TavilyEnabled(), c.lifecycle.KeyManager(config.Tavily), cfg.TavilyAPIKeys)
	return status.KeyStatusSnapshot{Firecrawl: firecrawl, Tavily: tavily}
}

// MCPPayload builds the MCP descriptor for target ("firecrawl", "tavily",
// or "both"), materializing the tavily helper launcher when needed.
func (c *Controller) MCPPayload(target string) (mcp.Payload, error) {
	cfg := c.store.Get()

	var launcher mcp.Launcher
	if cfg.TavilyEnabled() {
		var err error
		launcher, err = mcp.EnsureTavilyLauncher()
		if err != nil {
			return mcp.Payload{}, err
		}
	}

	return mcp.BuildPayload(cfg, target, launcher)
}

// AutostartEnabled reports whether launch-on-login is currently enabled.
func (c *Controller) AutostartEnabled() (bool, error) {
	return c.autostart.IsEnabled()
}

// SetAutostartEnabled enables or disables launch-on-login and returns the
// resulting state.
func (c *Controller) SetAutostartEnabled(enabled bool) (bool, error) {
	return c.autostart.SetEnabled(enabled)
}
