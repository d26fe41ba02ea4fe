package proxy_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/relaywave/balance-proxy/internal/proxy"
)

func TestAddRequestID_GeneratesWhenEmpty(t *testing.T) {
	t.Parallel()

	ctx := proxy.AddRequestID(t.Context(), "")
	id := proxy.GetRequestID(ctx)
	assert.NotEmpty(t, id)
}

func TestAddRequestID_PreservesGivenID(t *testing.T) {
	t.Parallel()

	ctx := proxy.AddRequestID(t.Context(), "req-123")
	assert.Equal(t, "req-123", proxy.GetRequestID(ctx))
}

func TestGetRequestID_EmptyWhenUnset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", proxy.GetRequestID(t.Context()))
}

func TestNewLogger_ReturnsUsableLogger(t *testing.T) {
	t.Parallel()

	logger := proxy.NewLogger()
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
