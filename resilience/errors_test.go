package resilience

import (
	"errors"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{ErrCircuitOpen, ErrRateLimitExceeded, ErrBulkheadFull, ErrTimeout}
	for i, a := range all {
		if !strings.HasPrefix(a.Error(), "resilience: ") {
			t.Errorf("%q should carry the resilience: prefix", a)
		}
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v and %v should be distinct", a, b)
			}
		}
	}
}

func TestErrBackingOff_IsRateLimit(t *testing.T) {
	if !errors.Is(ErrBackingOff, ErrRateLimitExceeded) {
		t.Error("ErrBackingOff should match ErrRateLimitExceeded")
	}
	if errors.Is(ErrRateLimitExceeded, ErrBackingOff) {
		t.Error("a plain rate limit is not a backoff")
	}
}
