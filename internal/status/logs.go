package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaxLogLines bounds the in-memory log ring surfaced by the recent-logs
// control command. It is independent of whatever the structured zerolog
// sink retains or rotates.
const MaxLogLines = 500

// LogRing is a fixed-capacity FIFO of formatted log lines, the second,
// always-available sink the control surface reads from regardless of how
// the structured logger is configured.
type LogRing struct {
	mu    sync.Mutex
	lines []string
}

// NewLogRing returns an empty ring.
func NewLogRing() *LogRing {
	return &LogRing{lines: make([]string, 0, MaxLogLines)}
}

// Append formats "<unix_seconds> [<LEVEL>] <message>", logs it through
// logger at the matching level, and pushes it into the ring, evicting the
// oldest entry once the ring is at capacity.
func (r *LogRing) Append(logger zerolog.Logger, level, message string) {
	line := fmt.Sprintf("%d [%s] %s", time.Now().Unix(), level, message)

	switch level {
	case "ERROR":
		logger.Error().Msg(message)
	case "WARN":
		logger.Warn().Msg(message)
	default:
		logger.Info().Msg(message)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) >= MaxLogLines {
		r.lines = r.lines[1:]
	}
	r.lines = append(r.lines, line)
}

// Recent returns a copy of the currently buffered log lines, oldest first.
func (r *LogRing) Recent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
