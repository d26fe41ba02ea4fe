package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/relaywave/balance-proxy/internal/config"
	"github.com/relaywave/balance-proxy/internal/keypool"
	"github.com/relaywave/balance-proxy/internal/status"
)

// providerHandle tracks one running provider's server and key manager, so
// Stop can shut both down and Status/KeyStatus can read live state.
type providerHandle struct {
	server     *Server
	keyManager *keypool.RoundRobinManager
	listenURL  string
}

// Lifecycle owns the zero, one, or two running listeners (firecrawl and
// tavily) and starts/stops them idempotently. A single Lifecycle is shared
// for the process's whole life; Start/Stop may be called repeatedly as the
// operator starts and stops the proxy.
type Lifecycle struct {
	logger zerolog.Logger
	logs   *status.LogRing

	mu      sync.Mutex
	handles map[string]*providerHandle
}

// NewLifecycle builds an idle Lifecycle with no running listeners.
func NewLifecycle(logger zerolog.Logger, logs *status.LogRing) *Lifecycle {
	return &Lifecycle{
		logger:  logger,
		logs:    logs,
		handles: make(map[string]*providerHandle),
	}
}

// Running reports whether the named provider currently has a live listener.
func (l *Lifecycle) Running(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.handles[provider]
	return ok
}

// KeyManager returns the live key manager for a running provider, or nil if
// it isn't running.
func (l *Lifecycle) KeyManager(provider string) *keypool.RoundRobinManager {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[provider]
	if !ok {
		return nil
	}
	return h.keyManager
}

// ListenURL returns the advertised base URL for a running provider, or ""
// if it isn't running.
func (l *Lifecycle) ListenURL(provider string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[provider]
	if !ok {
		return ""
	}
	return h.listenURL
}

// Start binds and serves a listener for every enabled, not-already-running
// provider in cfg. Unlike Stop, a bind failure on one provider does not
// abort starting the other: partial success is a valid end state, reported
// through Status as "degraded".
func (l *Lifecycle) Start(ctx context.Context, cfg config.Config) error {
	var firstErr error

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if cfg.FirecrawlEnabled() && !l.Running(config.Firecrawl) {
		if err := l.startProvider(config.Firecrawl, cfg.ListenURL(), cfg.FirecrawlAPIKeys,
			cfg.UpstreamBaseURL, cfg.ProxyToken, cfg.KeyCooldownSeconds, cfg.RequestTimeoutMS, cfg.EnableHTTP2); err != nil {
			l.logs.Append(l.logger, "ERROR", fmt.Sprintf("failed to start firecrawl listener: %v", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if cfg.TavilyEnabled() && !l.Running(config.Tavily) {
		if err := l.startProvider(config.Tavily, cfg.TavilyListenURL(), cfg.TavilyAPIKeys,
			cfg.TavilyUpstreamBaseURL, cfg.ProxyToken, cfg.KeyCooldownSeconds, cfg.RequestTimeoutMS, cfg.EnableHTTP2); err != nil {
			l.logs.Append(l.logger, "ERROR", fmt.Sprintf("failed to start tavily listener: %v", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (l *Lifecycle) startProvider(
	provider, listenAddr string,
	keys []string,
	upstreamBaseURL, proxyToken string,
	cooldownSeconds, timeoutMS int64,
	enableHTTP2 bool,
) error {
	manager := keypool.NewRoundRobinManager(keys, cooldownSeconds)
	handler := &Handler{
		Provider:        provider,
		ProxyToken:      proxyToken,
		UpstreamBaseURL: upstreamBaseURL,
		KeyManager:      manager,
		HTTPClient:      &http.Client{Timeout: time.Duration(timeoutMS) * time.Millisecond},
		Logs:            l.logs,
		Logger:          l.logger,
	}

	var mux http.Handler
	if provider == config.Tavily {
		mux = BuildTavilyRoutes(handler)
	} else {
		mux = BuildFirecrawlRoutes(handler)
	}

	addr := strings.TrimPrefix(listenAddr, "http://")
	server := NewServer(addr, mux, enableHTTP2)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listener for %s failed: %w", provider, err)
	case <-time.After(100 * time.Millisecond):
	}

	l.mu.Lock()
	l.handles[provider] = &providerHandle{server: server, keyManager: manager, listenURL: listenAddr}
	l.mu.Unlock()
	l.logs.Append(l.logger, "INFO", fmt.Sprintf("%s listener started on %s", provider, listenAddr))

	return nil
}

// Stop shuts down every running listener concurrently, waiting for both to
// finish (or the context to expire) before returning.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	handles := l.handles
	l.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)

	for provider, handle := range handles {
		provider, handle := provider, handle
		group.Go(func() error {
			if err := handle.server.Shutdown(groupCtx); err != nil {
				return fmt.Errorf("failed to stop %s listener: %w", provider, err)
			}
			return nil
		})
	}

	err := group.Wait()

	l.mu.Lock()
	l.handles = make(map[string]*providerHandle)
	l.mu.Unlock()

	l.logs.Append(l.logger, "INFO", "All proxies stopped")
	return err
}
