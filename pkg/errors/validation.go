package errors

import (
	"slices"
	"strings"
	"unicode"
)

// Ranks lists the taxonomic ranks the reference database carries a parent
// column for, from broadest to narrowest.
var Ranks = []string{"realm", "kingdom", "phylum", "class", "order", "family", "genus", "species"}

// ValidateRank checks that rank is one of [Ranks].
// Ranks are interpolated into column names, so anything else is rejected.
func ValidateRank(rank string) error {
	if rank == "" {
		return New(ErrCodeInvalidRank, "rank cannot be empty")
	}
	if !slices.Contains(Ranks, rank) {
		return New(ErrCodeInvalidRank, "unknown rank %q (must be one of: %s)", rank, strings.Join(Ranks, ", "))
	}
	return nil
}

// ValidateNodeID checks a graph node identifier (EC number, taxon name).
//
// Identifiers are opaque, but they must be non-empty and free of control
// characters because they end up in DOT labels and cache keys.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id %q contains control characters", id)
		}
	}
	return nil
}

// ValidatePath validates a file path supplied on the command line or in a
// config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
