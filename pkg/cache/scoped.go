package cache

// ScopedKeyer prefixes every key of an inner Keyer.
//
// The CLI scopes keys in a shared redis cache by release, so machines running
// different metavis versions never read each other's encodings:
//
//	keyer := cache.NewScopedKeyer(nil, "metavis:"+buildinfo.Version+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ChordKey(tableHash string, opts ChordKeyOpts) string {
	return k.prefix + k.inner.ChordKey(tableHash, opts)
}

func (k *ScopedKeyer) CountsKey(tableHash string, opts CountsKeyOpts) string {
	return k.prefix + k.inner.CountsKey(tableHash, opts)
}

func (k *ScopedKeyer) TreeKey(tableHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(tableHash, opts)
}

func (k *ScopedKeyer) LayoutKey(opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(opts)
}

func (k *ScopedKeyer) ArtifactKey(resultHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, format)
}
