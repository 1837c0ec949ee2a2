package config

import "errors"

var (
	ErrInvalidAddr      = errors.New("config: server address is required")
	ErrInvalidStorePath = errors.New("config: store path is required")
	ErrInvalidDuration  = errors.New("config: duration must not be negative")
	ErrInvalidRate      = errors.New("config: rate limit must be positive")
	ErrInvalidFreshness = errors.New("config: news freshness exceeds news ttl")
	ErrMissingSecret    = errors.New("config: required secret is empty")
)
