package autostart

// Noop is an Autostart that reports launch-on-login as permanently
// unavailable, for platforms with no wired backend yet.
type Noop struct{}

// IsEnabled always reports false.
func (Noop) IsEnabled() (bool, error) { return false, nil }

// SetEnabled always fails; there is nothing to toggle.
func (Noop) SetEnabled(bool) (bool, error) {
	return false, ErrUnsupported
}
