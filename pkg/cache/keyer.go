package cache

import "time"

// PreviewKeyOpts identifies the printer a preview was rendered for.
type PreviewKeyOpts struct {
	Resolution string `json:"resolution"`
	Size       string `json:"size"`
	Index      int    `json:"index"`
}

// Keyer builds cache keys.
type Keyer interface {
	// PreviewKey returns the key for the image rendered from the program
	// whose hash is programHash.
	PreviewKey(programHash string, opts PreviewKeyOpts) string
}

// DefaultKeyer builds keys of the form "preview:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PreviewKey implements Keyer.
func (DefaultKeyer) PreviewKey(programHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", programHash, opts)
}

// ScopedKeyer prefixes every key, giving each tenant of a shared cache its
// own namespace:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "zplkit:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PreviewKey implements Keyer.
func (k *ScopedKeyer) PreviewKey(programHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(programHash, opts)
}

// TTLPreview is how long a rendered preview stays cached. Rendering is a
// pure function of the program and profile, so entries only expire to bound
// disk use.
const TTLPreview = 7 * 24 * time.Hour
