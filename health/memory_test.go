package health

import (
	"context"
	"errors"
	"testing"
)

func TestNewMemoryChecker_Thresholds(t *testing.T) {
	tests := []struct {
		name         string
		cfg          MemoryCheckerConfig
		wantWarning  float64
		wantCritical float64
	}{
		{"defaults", MemoryCheckerConfig{}, 0.8, 0.95},
		{"custom", MemoryCheckerConfig{WarningThreshold: 0.7, CriticalThreshold: 0.9}, 0.7, 0.9},
		{"invalid warning", MemoryCheckerConfig{WarningThreshold: 1.5}, 0.8, 0.95},
		{"critical below warning", MemoryCheckerConfig{WarningThreshold: 0.9, CriticalThreshold: 0.7}, 0.9, 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMemoryChecker(tt.cfg)
			if c.config.WarningThreshold != tt.wantWarning {
				t.Errorf("WarningThreshold = %v, want %v", c.config.WarningThreshold, tt.wantWarning)
			}
			if c.config.CriticalThreshold != tt.wantCritical {
				t.Errorf("CriticalThreshold = %v, want %v", c.config.CriticalThreshold, tt.wantCritical)
			}
		})
	}
}

func TestMemoryChecker_Check(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})
	if checker.Name() != "memory" {
		t.Errorf("Name() = %v, want 'memory'", checker.Name())
	}

	result := checker.Check(context.Background())
	for _, key := range []string{"alloc_bytes", "max_alloc", "ceiling_source", "num_gc", "goroutines"} {
		if _, ok := result.Details[key]; !ok {
			t.Errorf("Details missing key: %s", key)
		}
	}
}

func TestMemoryChecker_LowCeiling(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{MaxAlloc: 1024, WarningThreshold: 0.5, CriticalThreshold: 0.8})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy with a 1KB ceiling", result.Status)
	}
	if result.Details["max_alloc"] != uint64(1024) {
		t.Errorf("max_alloc = %v, want 1024", result.Details["max_alloc"])
	}
	if result.Details["ceiling_source"] != "configured limit" {
		t.Errorf("ceiling_source = %v", result.Details["ceiling_source"])
	}
	if !errors.Is(result.Error, ErrCheckFailed) {
		t.Errorf("Error = %v, want %v", result.Error, ErrCheckFailed)
	}
}

func TestMemoryChecker_SessionCount(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{Sessions: func() int { return 7 }})

	result := checker.Check(context.Background())
	if result.Details["sessions"] != 7 {
		t.Errorf("sessions = %v, want 7", result.Details["sessions"])
	}
	if _, ok := NewMemoryChecker(MemoryCheckerConfig{}).Check(context.Background()).Details["sessions"]; ok {
		t.Error("sessions detail should be absent without a counter")
	}
}

func TestMemoryChecker_CheckContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewMemoryChecker(MemoryCheckerConfig{}).Check(ctx)
	if result.Status != StatusUnhealthy || result.Error != context.Canceled {
		t.Errorf("Check() = %+v, want unhealthy with context.Canceled", result)
	}
}
