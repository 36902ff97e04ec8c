// Package dedup plans the removal of exact and perceptual duplicates. The
// planners are pure: they return the records to discard and leave moving
// files to the caller.
package dedup

import (
	"fmt"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
)

// ReasonExact is the log reason for byte-identical duplicates.
const ReasonExact = "duplicate_exact"

// NearReason returns the log reason for a perceptual duplicate at distance d.
func NearReason(d int) string { return fmt.Sprintf("near_duplicate_h%d", d) }

// Drop is one planned removal.
type Drop struct {
	Record *dataset.ImageRecord
	// Keep is the record that survives in Record's place.
	Keep   *dataset.ImageRecord
	Reason string
	// Distance is the Hamming distance between the pair; zero for exact duplicates.
	Distance int
}

// AliveFunc reports whether a record may still be acted upon.
type AliveFunc func(*dataset.ImageRecord) bool

// Exists is the default liveness check: the image file is still in place.
func Exists(r *dataset.ImageRecord) bool { return r.Exists() }

func aliveOrExists(alive AliveFunc) AliveFunc {
	if alive == nil {
		return Exists
	}
	return alive
}
