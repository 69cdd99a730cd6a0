// Package cache stores rendered export artifacts so repeated exports of an
// unchanged flowchart skip layout and rasterization.
//
// Backends implement [Cache]:
//   - [FileCache]: hashed files under a directory, for the CLI
//   - [RedisCache]: shared cache for the document service
//   - [NullCache]: caching disabled
//
// [Compressed] wraps any backend with zstd compression. Keys come from a
// [Keyer] so every backend agrees on naming; [ScopedKeyer] adds a namespace
// prefix per tenant.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Default entry lifetimes.
const (
	// TTLArtifact is how long a rendered export stays valid. Keys are content
	// hashes, so stale entries are never served; the TTL only bounds storage.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLOverview is how long a node-link overview stays valid.
	TTLOverview = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey names a print export of a document.
	ArtifactKey(documentHash string, opts ArtifactKeyOpts) string

	// OverviewKey names a node-link overview of a document.
	OverviewKey(documentHash string, opts OverviewKeyOpts) string
}

// ArtifactKeyOpts holds everything besides the document that changes a
// print export.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Byline      string  `json:"byline,omitempty"`
	Logo        string  `json:"logo,omitempty"`
	FooterText  string  `json:"footer_text,omitempty"`
	FooterLogo  string  `json:"footer_logo,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// OverviewKeyOpts holds the options of a node-link overview.
type OverviewKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return derivedKey("artifact", documentHash, opts)
}

// OverviewKey returns "overview:<sha256>".
func (DefaultKeyer) OverviewKey(documentHash string, opts OverviewKeyOpts) string {
	return derivedKey("overview", documentHash, opts)
}

// derivedKey is "<kind>:" followed by the SHA-256 of the document hash and
// its JSON-encoded options. Struct field order fixes the encoding.
func derivedKey(kind, documentHash string, opts any) string {
	enc, _ := json.Marshal(opts)
	h := sha256.New()
	h.Write([]byte(documentHash))
	h.Write([]byte{0})
	h.Write(enc)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// ContentHash fingerprints a serialized Graph Document. Two flowcharts share
// a hash only when their documents are byte-identical.
func ContentHash(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// NullCache is the backend used when caching is turned off: lookups always
// miss and writes are dropped, so every export renders afresh.
type NullCache struct{}

// NewNullCache returns a disabled cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
