// Package status derives the proxy's externally visible health: the
// running/degraded flags the control surface reports, and the per-key
// cooldown snapshots shown by the key-status command.
package status

import (
	"time"

	"github.com/relaywave/balance-proxy/internal/config"
	"github.com/relaywave/balance-proxy/internal/keypool"
)

// ProxyStatus is the full status payload returned by the status control
// command.
type ProxyStatus struct {
	Running            bool
	AnyRunning         bool
	Degraded           bool
	ListenURL          string
	TavilyListenURL    string
	FirecrawlEnabled   bool
	TavilyEnabled      bool
	FirecrawlRunning   bool
	TavilyRunning      bool
}

// DeriveStatusFlags computes running/any-running/degraded from the
// configured and actually-running state of both providers. "running" means
// every enabled provider has a live listener; "degraded" means at least one
// provider is up but not all enabled ones are.
func DeriveStatusFlags(cfg *config.Config, firecrawlRunning, tavilyRunning bool) (running, anyRunning, degraded bool) {
	firecrawlEnabled := cfg.FirecrawlEnabled()
	tavilyEnabled := cfg.TavilyEnabled()

	enabledCount := 0
	runningEnabledCount := 0
	if firecrawlEnabled {
		enabledCount++
		if firecrawlRunning {
			runningEnabledCount++
		}
	}
	if tavilyEnabled {
		enabledCount++
		if tavilyRunning {
			runningEnabledCount++
		}
	}

	anyRunning = firecrawlRunning || tavilyRunning
	running = enabledCount > 0 && runningEnabledCount == enabledCount
	degraded = anyRunning && !running

	return running, anyRunning, degraded
}

// BuildStatus assembles the full ProxyStatus payload for the given config
// and live provider state.
func BuildStatus(cfg *config.Config, firecrawlRunning, tavilyRunning bool) ProxyStatus {
	running, anyRunning, degraded := DeriveStatusFlags(cfg, firecrawlRunning, tavilyRunning)

	s := ProxyStatus{
		Running:          running,
		AnyRunning:       anyRunning,
		Degraded:         degraded,
		FirecrawlEnabled: cfg.FirecrawlEnabled(),
		TavilyEnabled:    cfg.TavilyEnabled(),
		FirecrawlRunning: firecrawlRunning,
		TavilyRunning:    tavilyRunning,
	}
	if firecrawlRunning {
		s.ListenURL = cfg.ListenURL()
	}
	if tavilyRunning {
		s.TavilyListenURL = cfg.TavilyListenURL()
	}
	return s
}

// ProviderKeyStatusSnapshot reports one provider's configuration state and
// the health of each of its keys.
type ProviderKeyStatusSnapshot struct {
	Configured bool
	Running    bool
	Keys       []keypool.KeyStatus
}

// KeyStatusSnapshot reports both providers' key health in one payload.
type KeyStatusSnapshot struct {
	Firecrawl ProviderKeyStatusSnapshot
	Tavily    ProviderKeyStatusSnapshot
}

// BuildProviderKeyStatus builds one provider's snapshot. manager is nil
// when the provider isn't currently running, in which case its configured
// keys are reported idle.
func BuildProviderKeyStatus(configured bool, manager *keypool.RoundRobinManager, configuredKeys []string) ProviderKeyStatusSnapshot {
	if manager != nil {
		return ProviderKeyStatusSnapshot{
			Configured: configured,
			Running:    true,
			Keys:       manager.Snapshot(),
		}
	}
	return ProviderKeyStatusSnapshot{
		Configured: configured,
		Running:    false,
		Keys:       keypool.IdleStatuses(configuredKeys),
	}
}

// CooldownRemaining reports how long (rounded to whole seconds) a key
// status is still cooling down for, as of now. Zero when idle.
func CooldownRemaining(s keypool.KeyStatus, now time.Time) time.Duration {
	if s.Idle {
		return 0
	}
	remaining := s.CooldownUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining.Round(time.Second)
}
