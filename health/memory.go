package health

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
)

// MemoryCheckerConfig configures the memory checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap fraction reported as degraded. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap fraction reported as unhealthy. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap ceiling in bytes. Zero means the GOMEMLIMIT soft
	// limit when one is set, else the memory obtained from the OS.
	MaxAlloc uint64

	// Sessions reports the number of live session caches, if set.
	Sessions func() int
}

// MemoryChecker reports heap usage against a ceiling. Session caches live in
// process memory, so growth here usually means too many live sessions.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker returns a checker named "memory". Out-of-range thresholds
// take the defaults, and a critical threshold below the warning threshold
// is raised above it.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &MemoryChecker{config: config}
}

func (m *MemoryChecker) Name() string { return "memory" }

func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	ceiling, source := m.ceiling(stats.Sys)
	if ceiling == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.HeapAlloc) / float64(ceiling)
	details := map[string]any{
		"alloc_bytes":    stats.HeapAlloc,
		"max_alloc":      ceiling,
		"ceiling_source": source,
		"usage_percent":  ratio * 100,
		"num_gc":         stats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}
	if m.config.Sessions != nil {
		details["sessions"] = m.config.Sessions()
	}

	msg := fmt.Sprintf("heap at %.1f%% of %s", ratio*100, source)
	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded(msg).WithDetails(details)
	}
	return Healthy(msg).WithDetails(details)
}

// ceiling picks the byte limit heap usage is measured against.
func (m *MemoryChecker) ceiling(sys uint64) (uint64, string) {
	if m.config.MaxAlloc > 0 {
		return m.config.MaxAlloc, "configured limit"
	}
	// SetMemoryLimit with a negative value only reads the current limit.
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		return uint64(limit), "GOMEMLIMIT"
	}
	return sys, "process memory"
}
