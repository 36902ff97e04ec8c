package dedup

import (
	"path/filepath"
	"slices"
	"sort"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/fingerprint"
)

// Representatives collapses clusters of perceptually close records into
// their best member. It is used inside a single split, unlike
// NearDuplicates. Records without a hash are bucketed by extension and
// always survive. The result is sorted best first.
func Representatives(records []*dataset.ImageRecord, threshold, prefixLen int) []*dataset.ImageRecord {
	var order []string
	buckets := make(map[string][]*dataset.ImageRecord)
	for _, r := range records {
		key := "nohash_" + filepath.Ext(r.ImagePath)
		if r.PerceptualHash != "" {
			key = fingerprint.Prefix(r.PerceptualHash, prefixLen)
		}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], r)
	}

	seen := make(map[string]bool)
	var pool []*dataset.ImageRecord
	add := func(r *dataset.ImageRecord) {
		if !seen[r.ImagePath] {
			seen[r.ImagePath] = true
			pool = append(pool, r)
		}
	}

	for _, key := range order {
		group := buckets[key]
		taken := make([]bool, len(group))
		for i := range group {
			if taken[i] {
				continue
			}
			taken[i] = true
			best := group[i]
			for j := i + 1; j < len(group); j++ {
				if taken[j] || !near(group[i], group[j], threshold) {
					continue
				}
				taken[j] = true
				if !best.BetterThan(group[j]) {
					best = group[j]
				}
			}
			add(best)
		}
	}

	return Rank(pool)
}

// Rank returns records sorted best first by (area, blur). Equal records
// keep their input order. The input slice is not modified.
func Rank(records []*dataset.ImageRecord) []*dataset.ImageRecord {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PixelArea() != b.PixelArea() {
			return a.PixelArea() > b.PixelArea()
		}
		return a.BlurScore > b.BlurScore
	})
	return out
}

func near(a, b *dataset.ImageRecord, threshold int) bool {
	if a.PerceptualHash == "" || b.PerceptualHash == "" {
		return false
	}
	d, err := fingerprint.Distance(a.PerceptualHash, b.PerceptualHash)
	return err == nil && d <= threshold
}
