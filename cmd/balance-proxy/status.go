package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the proxy listeners are reachable",
	Long: `Check each enabled provider's listener by querying its /health
endpoint. Exits non-zero if any enabled provider is unreachable.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrInit(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var failures int

	if cfg.FirecrawlEnabled() {
		if err := checkHealth(cfg.ListenURL()); err != nil {
			cmd.Printf("✗ firecrawl is not reachable (%s): %v\n", cfg.ListenURL(), err)
			failures++
		} else {
			cmd.Printf("✓ firecrawl is running (%s)\n", cfg.ListenURL())
		}
	}

	if cfg.TavilyEnabled() {
		if err := checkHealth(cfg.TavilyListenURL()); err != nil {
			cmd.Printf("✗ tavily is not reachable (%s): %v\n", cfg.TavilyListenURL(), err)
			failures++
		} else {
			cmd.Printf("✓ tavily is running (%s)\n", cfg.TavilyListenURL())
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d provider(s) unreachable", failures)
	}
	return nil
}

// checkHealth performs an HTTP health check against a listener's /health
// endpoint.
func checkHealth(listenURL string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(listenURL + "/health")
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}
