package cache

import (
	"testing"
	"time"
)

func TestEntry_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	type payload struct {
		Name string `json:"name"`
	}

	data, err := NewEntry("cache:v1:tool:cursor", payload{Name: "Cursor"}, 2*time.Hour, now)
	if err != nil {
		t.Fatalf("NewEntry() error = %v", err)
	}
	e, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("DecodeEntry() error = %v", err)
	}
	if e.Key != "cache:v1:tool:cursor" || e.TTLSeconds != 7200 || !e.CreatedAt.Equal(now) {
		t.Errorf("unexpected envelope %+v", e)
	}
	if !e.ExpiresAt().Equal(now.Add(2 * time.Hour)) {
		t.Errorf("ExpiresAt() = %v", e.ExpiresAt())
	}

	var p payload
	if err := e.Decode(&p); err != nil || p.Name != "Cursor" {
		t.Errorf("Decode() = %+v, %v", p, err)
	}
}

func TestDecodeEntry_Invalid(t *testing.T) {
	for _, in := range []string{"", "not json", `{"key":"k"}`} {
		if _, err := DecodeEntry([]byte(in)); err == nil {
			t.Errorf("DecodeEntry(%q) should fail", in)
		}
	}
}

func TestEntry_Expired(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ttl  int64
		at   time.Time
		want bool
	}{
		{"before expiry", 3600, created.Add(59 * time.Minute), false},
		{"at expiry", 3600, created.Add(time.Hour), true},
		{"after expiry", 3600, created.Add(2 * time.Hour), true},
		{"no ttl", 0, created.Add(1000 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{CreatedAt: created, TTLSeconds: tt.ttl}
			if got := e.Expired(tt.at); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
