// Package autostart provides a thin collaborator for enabling or disabling
// launch-on-login, delegated to outside the core the way the original
// desktop core delegated to its platform's autolaunch plugin.
package autostart

import "errors"

// ErrUnsupported is returned by collaborators with no real backend wired.
var ErrUnsupported = errors.New("autostart: not supported on this platform")

// Autostart reports and toggles whether balance-proxy is launched
// automatically on login. Implementations are platform-specific; callers
// that have no suitable backend should use Noop.
type Autostart interface {
	// IsEnabled reports the current launch-on-login state.
	IsEnabled() (bool, error)
	// SetEnabled enables or disables launch-on-login and returns the
	// resulting state, mirroring the teacher-style "do the write, then
	// read back to confirm" pattern.
	SetEnabled(enabled bool) (bool, error)
}
