package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation, so
// exports of the same document under different owners never share entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "algorithm:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed key for export caching.
func (k *ScopedKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(documentHash, opts)
}

// OverviewKey generates a prefixed key for overview caching.
func (k *ScopedKeyer) OverviewKey(documentHash string, opts OverviewKeyOpts) string {
	return k.prefix + k.inner.OverviewKey(documentHash, opts)
}
