package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or rewrite the proxy configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration as JSON",
	RunE:  runConfigShow,
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Normalize, validate, and rewrite the configuration file from stdin JSON",
	Long: `Read a JSON config document from stdin, normalize it (trim whitespace,
split/dedupe key lists), validate it, and persist it atomically. The
running listeners, if any, are not restarted: stop and start the proxy
again to pick up the new keys or ports.`,
	RunE: runConfigSave,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrInit(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	cmd.Println(string(encoded))
	return nil
}

func runConfigSave(cmd *cobra.Command, _ []string) error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	var cfg config.Config
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&cfg); err != nil {
		return fmt.Errorf("failed to parse config from stdin: %w", err)
	}

	saved, err := config.Save(configPath, cfg)
	if err != nil {
		cmd.PrintErrf("✗ config invalid: %v\n", err)
		return err
	}

	encoded, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	cmd.Printf("✓ saved %s\n%s\n", configPath, encoded)
	return nil
}
