// Package cache stores computed visualization data between runs.
//
// Every result metavis produces is a pure function of its inputs, so entries
// are keyed by a hash of those inputs and never need invalidation beyond a
// generous TTL. [FileCache] backs the CLI, [RedisCache] lets several machines
// share results, and [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any held resources.
	Close() error
}

// Entry lifetimes.
const (
	TTLChord    = 7 * 24 * time.Hour
	TTLCounts   = 7 * 24 * time.Hour
	TTLTree     = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Key types reported to cache hooks.
const (
	KeyTypeChord    = "chord"
	KeyTypeCounts   = "counts"
	KeyTypeTree     = "tree"
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// ChordKeyOpts identifies the category maps of a chord computation.
type ChordKeyOpts struct {
	AnnotationHash string `json:"annotation_hash"`
	TaxonomyHash   string `json:"taxonomy_hash"`
}

// CountsKeyOpts identifies the category map of a counts computation.
type CountsKeyOpts struct {
	CategoryHash string `json:"category_hash"`
}

// TreeKeyOpts identifies the records and levels of a tree computation.
type TreeKeyOpts struct {
	RecordsHash string   `json:"records_hash"`
	Levels      []string `json:"levels"`
}

// LayoutKeyOpts identifies the inputs of a network layout.
type LayoutKeyOpts struct {
	NodesHash string `json:"nodes_hash"`
	EdgesHash string `json:"edges_hash"`
	NamesHash string `json:"names_hash"`
}

// Keyer derives cache keys from hashed inputs.
type Keyer interface {
	ChordKey(tableHash string, opts ChordKeyOpts) string
	CountsKey(tableHash string, opts CountsKeyOpts) string
	TreeKey(tableHash string, opts TreeKeyOpts) string
	LayoutKey(opts LayoutKeyOpts) string
	ArtifactKey(resultHash, format string) string
}

// DefaultKeyer hashes all key components under a per-type prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ChordKey(tableHash string, opts ChordKeyOpts) string {
	return hashKey(KeyTypeChord, tableHash, opts)
}

func (DefaultKeyer) CountsKey(tableHash string, opts CountsKeyOpts) string {
	return hashKey(KeyTypeCounts, tableHash, opts)
}

func (DefaultKeyer) TreeKey(tableHash string, opts TreeKeyOpts) string {
	return hashKey(KeyTypeTree, tableHash, opts)
}

func (DefaultKeyer) LayoutKey(opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, opts)
}

func (DefaultKeyer) ArtifactKey(resultHash, format string) string {
	return hashKey(KeyTypeArtifact, resultHash, format)
}
