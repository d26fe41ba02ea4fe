package config_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaywave/balance-proxy/internal/config"
)

func TestStore_GetReturnsLatestSet(t *testing.T) {
	t.Parallel()

	store := config.NewStore(config.Default())
	assert.Equal(t, config.Default(), store.Get())

	updated := config.Default()
	updated.Host = "0.0.0.0"
	store.Set(updated)

	assert.Equal(t, "0.0.0.0", store.Get().Host)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := config.NewStore(config.Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Get()
		}()
		go func(port int) {
			defer wg.Done()
			cfg := config.Default()
			cfg.Port = port
			store.Set(cfg)
		}(8000 + i)
	}
	wg.Wait()
}
