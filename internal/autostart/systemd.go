package autostart

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// unitName is the systemd user unit balance-proxy installs for autostart.
const unitName = "balance-proxy.service"

// Systemd is a Linux systemd --user backed Autostart. Enabling writes (or
// rewrites) a small unit file pointing at execPath and runs
// `systemctl --user enable`; disabling runs `systemctl --user disable`. The
// unit file is left in place on disable so re-enabling doesn't require
// rediscovering execPath.
type Systemd struct {
	execPath string
	runner   commandRunner
}

type commandRunner func(name string, args ...string) ([]byte, error)

func defaultRunner(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // args are fixed, non-attacker-controlled
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// NewSystemd builds a Systemd collaborator that launches execPath on login.
func NewSystemd(execPath string) *Systemd {
	return &Systemd{execPath: execPath, runner: defaultRunner}
}

func (s *Systemd) unitDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve systemd user unit dir: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user"), nil
}

func (s *Systemd) unitPath() (string, error) {
	dir, err := s.unitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, unitName), nil
}

func (s *Systemd) unitContents() string {
	return fmt.Sprintf(`[Unit]
Description=balance-proxy

[Service]
ExecStart=%s serve
Restart=on-failure

[Install]
WantedBy=default.target
`, s.execPath)
}

func (s *Systemd) writeUnit() error {
	dir, err := s.unitDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create systemd user unit dir: %w", err)
	}
	path, err := s.unitPath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(s.unitContents()), 0o644); err != nil { //nolint:gosec // unit file is not secret
		return fmt.Errorf("failed to write systemd unit: %w", err)
	}
	return nil
}

// IsEnabled reports whether the unit is enabled, per `systemctl --user
// is-enabled`.
func (s *Systemd) IsEnabled() (bool, error) {
	out, err := s.runner("systemctl", "--user", "is-enabled", unitName)
	if err != nil {
		state := strings.TrimSpace(string(out))
		if state == "disabled" || state == "not-found" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read launch-on-login state: %w", err)
	}
	return strings.TrimSpace(string(out)) == "enabled", nil
}

// SetEnabled enables or disables launch-on-login and returns the resulting
// state read back from systemctl.
func (s *Systemd) SetEnabled(enabled bool) (bool, error) {
	if enabled {
		if err := s.writeUnit(); err != nil {
			return false, err
		}
		if _, err := s.runner("systemctl", "--user", "enable", unitName); err != nil {
			return false, fmt.Errorf("failed to enable launch-on-login: %w", err)
		}
	} else {
		if _, err := s.runner("systemctl", "--user", "disable", unitName); err != nil {
			return false, fmt.Errorf("failed to disable launch-on-login: %w", err)
		}
	}
	return s.IsEnabled()
}
