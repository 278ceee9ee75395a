package cache

// ScopedKeyer wraps a Keyer with a prefix so several editor sessions, or a
// test run, can share one backend without seeing each other's entries.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ValidationKey generates a prefixed validation key.
func (k *ScopedKeyer) ValidationKey(endpoint, snapshotHash string) string {
	return k.prefix + k.inner.ValidationKey(endpoint, snapshotHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}
