package keypool

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	return keys
}

// TestRoundRobinManager_SelectAlwaysReturnsAConfiguredKey asserts invariant
// 1: Select never errors and never returns an index outside the pool as
// long as at least one key was configured, regardless of how many failures
// have been recorded.
func TestRoundRobinManager_SelectAlwaysReturnsAConfiguredKey(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("select always returns a valid index", prop.ForAll(
		func(keyCount, failures int) bool {
			if keyCount <= 0 {
				return true
			}
			m := NewRoundRobinManager(makeKeys(keyCount), 60)
			base := time.Unix(1_700_000_000, 0)
			m.now = func() time.Time { return base }

			for i := 0; i < failures; i++ {
				m.MarkRetryableFailure(i % keyCount)
			}

			idx, key, err := m.Select()
			if err != nil {
				return false
			}
			return idx >= 0 && idx < keyCount && key == makeKeys(keyCount)[idx]
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

// TestRoundRobinManager_FallbackPicksEarliestRecovery asserts invariant 2:
// when every key is in cooldown, Select returns the index with the
// smallest remaining wait.
func TestRoundRobinManager_FallbackPicksEarliestRecovery(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("fallback selects earliest-expiring cooldown", prop.ForAll(
		func(keyCount int) bool {
			if keyCount <= 0 {
				return true
			}
			m := NewRoundRobinManager(makeKeys(keyCount), 60)
			base := time.Unix(1_700_000_000, 0)

			// Stagger failures so every key has a distinct, increasing
			// cooldown expiry: key i fails at base+i seconds, so key 0
			// always recovers first.
			for i := 0; i < keyCount; i++ {
				offset := i
				m.now = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }
				m.MarkRetryableFailure(i)
			}

			m.now = func() time.Time { return base.Add(time.Duration(keyCount) * time.Second) }
			idx, _, err := m.Select()
			if err != nil {
				return false
			}
			return idx == 0
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

// TestRoundRobinManager_CooldownNeverNegative asserts invariant 3: a key
// marked retryable is never immediately idle again at the same instant.
func TestRoundRobinManager_CooldownNeverNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a freshly failed key is never idle", prop.ForAll(
		func(cooldownSeconds int64) bool {
			if cooldownSeconds <= 0 {
				return true
			}
			m := NewRoundRobinManager([]string{"only"}, cooldownSeconds)
			base := time.Unix(1_700_000_000, 0)
			m.now = func() time.Time { return base }

			m.MarkRetryableFailure(0)
			snap := m.Snapshot()
			return len(snap) == 1 && !snap[0].Idle
		},
		gen.Int64Range(1, 3600),
	))

	properties.TestingRun(t)
}
