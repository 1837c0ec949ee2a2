package cache

import "time"

// Policy configures caching for one operation.
type Policy struct {
	// TTL is the store-enforced lifetime of an entry.
	// If zero, results are not cached.
	TTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// Freshness is an application-level window checked against the entry's
	// creation time, independent of TTL. Zero disables the check.
	Freshness time.Duration
}

// Policies holds the policy of every retrieval operation.
type Policies struct {
	Search     Policy
	Details    Policy
	Comparison Policy
	News       Policy
}

// DefaultPolicies returns the default policy set:
// search 24h, details and comparisons 7d, news stored 24h but fresh for 4h.
func DefaultPolicies() Policies {
	return Policies{
		Search:     Policy{TTL: 24 * time.Hour},
		Details:    Policy{TTL: 7 * 24 * time.Hour},
		Comparison: Policy{TTL: 7 * 24 * time.Hour},
		News:       Policy{TTL: 24 * time.Hour, Freshness: 4 * time.Hour},
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.TTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// Fresh reports whether an entry created at createdAt is still inside the
// freshness window at now. Without a window every entry is fresh.
func (p Policy) Fresh(createdAt, now time.Time) bool {
	if p.Freshness <= 0 {
		return true
	}
	return now.Sub(createdAt) < p.Freshness
}
