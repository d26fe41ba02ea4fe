package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaywave/balance-proxy/internal/config"
)

func TestRunConfigShow_PrintsLoadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy-config.json")
	cfgFile = path
	defer func() { cfgFile = "" }()

	var out bytes.Buffer
	configShowCmd.SetOut(&out)

	require.NoError(t, runConfigShow(configShowCmd, nil))

	var shown config.Config
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, config.Default().Normalize(), shown)
}

func TestRunConfigSave_PersistsNormalizedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy-config.json")
	cfgFile = path
	defer func() { cfgFile = "" }()

	cfg := config.Default()
	cfg.FirecrawlAPIKeys = []string{" fc-1 ,fc-2 "}
	input, err := json.Marshal(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	configSaveCmd.SetOut(&out)
	configSaveCmd.SetIn(bytes.NewReader(input))

	require.NoError(t, runConfigSave(configSaveCmd, nil))

	onDisk, err := config.LoadOrInit(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fc-1", "fc-2"}, onDisk.FirecrawlAPIKeys)
}

func TestRunConfigSave_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxy-config.json")
	cfgFile = path
	defer func() { cfgFile = "" }()

	cfg := config.Default()
	cfg.ProxyToken = ""
	input, err := json.Marshal(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	configSaveCmd.SetOut(&out)
	configSaveCmd.SetErr(&out)
	configSaveCmd.SetIn(bytes.NewReader(input))

	assert.Error(t, runConfigSave(configSaveCmd, nil))
}
