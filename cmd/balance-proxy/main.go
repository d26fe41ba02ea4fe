// Command balance-proxy is the CLI entry point: it serves the two provider
// listeners and exposes the control-command surface for scripting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "balance-proxy",
	Short: "Local key-pooling reverse proxy for firecrawl and tavily",
	Long: `balance-proxy fans out requests across pools of upstream API keys for
the firecrawl (scrape) and tavily (search) providers, rotating keys on
retryable failures and exposing a small control surface for status,
logs, and MCP descriptor generation.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the proxy config file (default: app data dir)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the explicit --config flag value if set,
// otherwise the default app-data-dir location.
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.Path()
}
