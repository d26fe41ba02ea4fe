package autostart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaywave/balance-proxy/internal/autostart"
)

func TestNoop_IsEnabledAlwaysFalse(t *testing.T) {
	t.Parallel()

	enabled, err := autostart.Noop{}.IsEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestNoop_SetEnabledAlwaysErrors(t *testing.T) {
	t.Parallel()

	_, err := autostart.Noop{}.SetEnabled(true)
	require.ErrorIs(t, err, autostart.ErrUnsupported)
}
