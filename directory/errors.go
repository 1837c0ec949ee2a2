package directory

import "errors"

// Sentinel errors for the service.
var (
	// ErrNilStore indicates the service was configured without a store.
	ErrNilStore = errors.New("directory: store is nil")

	// ErrNilGenerator indicates the service was configured without a generator.
	ErrNilGenerator = errors.New("directory: generator is nil")

	// ErrNoSources indicates the news discovery phase consulted no web pages.
	ErrNoSources = errors.New("directory: discovery returned no source urls")

	// ErrSameTool indicates a comparison of a tool with itself.
	ErrSameTool = errors.New("directory: cannot compare a tool with itself")
)
