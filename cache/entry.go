package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the envelope stored for every cached result.
type Entry struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
}

// NewEntry marshals payload into an envelope created at now.
func NewEntry(key string, payload any, ttl time.Duration, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cache: encode payload: %w", err)
	}
	return json.Marshal(Entry{
		Key:        key,
		Payload:    raw,
		CreatedAt:  now.UTC(),
		TTLSeconds: int64(ttl / time.Second),
	})
}

// DecodeEntry parses a stored envelope.
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("cache: decode entry: %w", err)
	}
	if len(e.Payload) == 0 {
		return Entry{}, fmt.Errorf("cache: decode entry: empty payload")
	}
	return e, nil
}

// Decode unmarshals the payload into v.
func (e Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("cache: decode payload: %w", err)
	}
	return nil
}

// ExpiresAt returns CreatedAt plus the TTL.
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(time.Duration(e.TTLSeconds) * time.Second)
}

// Expired reports whether the entry's TTL has elapsed at now. A zero TTL
// never expires at the application level.
func (e Entry) Expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return !now.Before(e.ExpiresAt())
}
