package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments or cache
// generations can share one Redis without colliding.
//
// Example usage:
//
//	// Bump the prefix when the renderer output changes
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v2:")
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

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(opts)
}

// PreviewKey generates a prefixed key for preview caching.
func (k *ScopedKeyer) PreviewKey(opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(opts)
}
