package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments
// (staging, production) can share one Redis instance.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// MetadataKey generates a prefixed metadata lookup key.
func (k *ScopedKeyer) MetadataKey(name string, includeDisabled bool) string {
	return k.prefix + k.inner.MetadataKey(name, includeDisabled)
}
