package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/autostart"
	"github.com/relaywave/balance-proxy/internal/config"
	"github.com/relaywave/balance-proxy/internal/control"
	"github.com/relaywave/balance-proxy/internal/status"
)

var mcpCmd = &cobra.Command{
	Use:       "mcp [firecrawl|tavily|both]",
	Short:     "Print an MCP server descriptor for the given target",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"firecrawl", "tavily", "both"},
	RunE:      runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	target := "both"
	if len(args) > 0 {
		target = args[0]
	}

	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrInit(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctrl := control.New(configPath, cfg, status.NewLogRing(), zerolog.New(io.Discard), autostart.Noop{})

	payload, err := ctrl.MCPPayload(target)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize MCP config: %w", err)
	}

	cmd.Println(string(encoded))
	return nil
}
