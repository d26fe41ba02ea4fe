package mcp

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relaywave/balance-proxy/internal/config"
)

// ScriptFileName is the materialized helper script's name within the app
// data directory.
const ScriptFileName = "tavily-local-proxy-mcp.mjs"

//go:embed assets/tavily-local-proxy-mcp.mjs
var embeddedScript []byte

// Launcher describes the command an MCP client should run to talk to the
// search provider's local listener.
type Launcher struct {
	Command string
	Args    []string
}

// EnsureTavilyLauncher materializes the embedded helper script into the app
// data directory if it is missing or stale, and returns the launcher
// descriptor pointing at it. Writes are atomic (temp file + rename) so a
// concurrent reader never observes a partial script.
func EnsureTavilyLauncher() (Launcher, error) {
	dir, err := config.AppDataDir()
	if err != nil {
		return Launcher{}, err
	}
	scriptPath := filepath.Join(dir, ScriptFileName)

	existing, err := os.ReadFile(scriptPath) //nolint:gosec // path is derived from app data dir
	needsWrite := true
	if err == nil {
		needsWrite = !bytes.Equal(existing, embeddedScript)
	} else if !os.IsNotExist(err) {
		return Launcher{}, fmt.Errorf("failed to read tavily MCP script %s: %w", scriptPath, err)
	}

	if needsWrite {
		if err := writeScriptAtomic(scriptPath, dir); err != nil {
			return Launcher{}, err
		}
	}

	return Launcher{Command: "node", Args: []string{scriptPath}}, nil
}

func writeScriptAtomic(scriptPath, dir string) error {
	tmp, err := os.CreateTemp(dir, ".tavily-mcp-*.mjs.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp tavily MCP script: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(embeddedScript); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp tavily MCP script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp tavily MCP script: %w", err)
	}
	if err := os.Rename(tmpPath, scriptPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename tavily MCP script into place: %w", err)
	}
	return nil
}
