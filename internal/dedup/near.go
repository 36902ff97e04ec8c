package dedup

import (
	"fmt"
	"slices"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/fingerprint"
)

// NearOptions configures perceptual duplicate detection.
type NearOptions struct {
	// Threshold is the largest Hamming distance still considered a duplicate.
	Threshold int
	// PrefixLen is the number of leading hex digits used as bucket key.
	PrefixLen int
	// Splits lists the partitions a record may be paired against.
	Splits []dataset.Split
}

// DefaultNearOptions returns threshold 3 with a four digit prefix.
func DefaultNearOptions() NearOptions {
	return NearOptions{Threshold: 3, PrefixLen: 4, Splits: dataset.DefaultSplits}
}

type bucketKey struct {
	prefix string
	pair   [2]dataset.Split
}

// NearDuplicates compares perceptual hashes across splits. Records are
// bucketed by hash prefix and split pair; pairs from the same split are
// never compared. Within a bucket the lower ranked record of every close
// pair is discarded. A record that was kept once is never discarded later
// and a discarded record takes part in no further comparison.
func NearDuplicates(records []*dataset.ImageRecord, alive AliveFunc, opts NearOptions) ([]Drop, error) {
	alive = aliveOrExists(alive)
	splits := opts.Splits
	if len(splits) == 0 {
		splits = dataset.DefaultSplits
	}

	var order []bucketKey
	buckets := make(map[bucketKey][]*dataset.ImageRecord)
	for _, r := range records {
		if r.PerceptualHash == "" || !alive(r) {
			continue
		}
		prefix := fingerprint.Prefix(r.PerceptualHash, opts.PrefixLen)
		for _, other := range splits {
			if other == r.Split {
				continue
			}
			pair := [2]dataset.Split{r.Split, other}
			slices.Sort(pair[:])
			key := bucketKey{prefix: prefix, pair: pair}
			if _, ok := buckets[key]; !ok {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], r)
		}
	}

	dropped := make(map[*dataset.ImageRecord]bool)
	kept := make(map[*dataset.ImageRecord]bool)
	var drops []Drop

	for _, key := range order {
		group := buckets[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Split == b.Split || dropped[a] || dropped[b] {
					continue
				}
				d, err := fingerprint.Distance(a.PerceptualHash, b.PerceptualHash)
				if err != nil {
					return nil, fmt.Errorf("compare %s and %s: %w", a.ImagePath, b.ImagePath, err)
				}
				if d > opts.Threshold {
					continue
				}

				keep, drop := a, b
				if !a.BetterThan(b) {
					keep, drop = b, a
				}
				// A kept record is never dropped, and the better member
				// of a pair is never discarded in favour of the worse.
				if kept[drop] {
					continue
				}

				kept[keep] = true
				dropped[drop] = true
				drops = append(drops, Drop{Record: drop, Keep: keep, Reason: NearReason(d), Distance: d})
			}
		}
	}
	return drops, nil
}
