package health

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCheckFailed is wrapped by results of checks whose dependency failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout reports a check cut off by the aggregator deadline.
	ErrCheckTimeout = fmt.Errorf("health: check timed out: %w", context.DeadlineExceeded)

	// ErrCheckPanicked reports a check that panicked.
	ErrCheckPanicked = errors.New("health: check panicked")

	// ErrCheckerNotFound reports an unregistered checker name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
