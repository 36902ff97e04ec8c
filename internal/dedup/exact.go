package dedup

import (
	"github.com/MeKo-Tech/dscurate/internal/dataset"
)

// ExactDuplicates groups live records by content digest. For every group
// of two or more, the first train member (or the first member when none is
// in train) is kept and every other member is planned for removal.
// Records without a digest never match.
func ExactDuplicates(records []*dataset.ImageRecord, alive AliveFunc) []Drop {
	alive = aliveOrExists(alive)

	var order []string
	groups := make(map[string][]*dataset.ImageRecord)
	for _, r := range records {
		if r.Digest == "" || !alive(r) {
			continue
		}
		if _, ok := groups[r.Digest]; !ok {
			order = append(order, r.Digest)
		}
		groups[r.Digest] = append(groups[r.Digest], r)
	}

	var drops []Drop
	for _, digest := range order {
		group := groups[digest]
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, r := range group {
			if r.Split == dataset.Train {
				keep = r
				break
			}
		}
		for _, r := range group {
			if r == keep {
				continue
			}
			drops = append(drops, Drop{Record: r, Keep: keep, Reason: ReasonExact})
		}
	}
	return drops
}
