package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// maxSegment bounds an escaped name inside a key; longer names are hashed.
const maxSegment = 128

// Keyer builds deterministic cache keys for each retrieval operation.
// Every key embeds the schema version tag so a shape change never serves
// stale-shaped entries.
//
// Contract:
// - Determinism: same inputs must produce same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Query keys a free-text search by a hash of its normalized form.
	Query(version, query string) (string, error)

	// Tool keys a single tool by its normalized identifier.
	Tool(version, name string) (string, error)

	// Pair keys two tools independently of argument order.
	Pair(version, a, b string) (string, error)

	// Fixed keys a singleton such as the rotating news batch.
	Fixed(version, name string) (string, error)
}

// DefaultKeyer generates keys of the form cache:<version>:<suffix>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Query returns cache:<version>:q:<hash>, where hash is the first 16 hex
// characters of SHA-256 over the lowercased, whitespace-collapsed query.
func (k *DefaultKeyer) Query(version, query string) (string, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return "", ErrInvalidKey
	}
	hash := sha256.Sum256([]byte(normalized))
	return build(version, "q:"+hex.EncodeToString(hash[:8]))
}

// Tool returns cache:<version>:tool:<name>, where name is the path-escaped
// normalized tool name. Punctuation is kept, so "C++" and "C#" never share
// an entry.
func (k *DefaultKeyer) Tool(version, name string) (string, error) {
	seg := segment(name)
	if seg == "" {
		return "", ErrInvalidKey
	}
	return build(version, "tool:"+seg)
}

// Pair returns cache:<version>:pair:<lo>/<hi> with the two normalized names
// sorted. Escaping turns any "/" inside a name into %2F, so the separator
// is unambiguous.
func (k *DefaultKeyer) Pair(version, a, b string) (string, error) {
	lo, hi := SortedPair(a, b)
	if lo == "" || hi == "" {
		return "", ErrInvalidKey
	}
	return build(version, "pair:"+escape(lo)+"/"+escape(hi))
}

// Fixed returns cache:<version>:<name>.
func (k *DefaultKeyer) Fixed(version, name string) (string, error) {
	return build(version, name)
}

// SortedPair returns the normalized forms of a and b in lexicographic order.
func SortedPair(a, b string) (string, string) {
	na, nb := NormalizeQuery(a), NormalizeQuery(b)
	if nb < na {
		return nb, na
	}
	return na, nb
}

// NormalizeQuery lowercases q and collapses internal whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func segment(name string) string {
	n := NormalizeQuery(name)
	if n == "" {
		return ""
	}
	return escape(n)
}

func escape(normalized string) string {
	e := url.PathEscape(normalized)
	if len(e) <= maxSegment {
		return e
	}
	hash := sha256.Sum256([]byte(normalized))
	return "h" + hex.EncodeToString(hash[:8])
}

func build(version, suffix string) (string, error) {
	if strings.TrimSpace(version) == "" {
		return "", ErrInvalidKey
	}
	key := fmt.Sprintf("cache:%s:%s", version, suffix)
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
