package discovery

import (
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/glossa-app/glossa/internal/version"
)

// Dedup keeps one package per id: the highest semantic version, with the
// raw version string compared ordinally when versions tie or do not parse.
// Among indistinguishable copies the first one seen wins. Survivors keep the
// order in which their id was first seen.
func Dedup(all []*manifest.Metadata) (unique, duplicates []*manifest.Metadata) {
	order := make([]string, 0, len(all))
	groups := make(map[string][]*manifest.Metadata, len(all))
	for _, m := range all {
		if _, seen := groups[m.ID]; !seen {
			order = append(order, m.ID)
		}
		groups[m.ID] = append(groups[m.ID], m)
	}

	for _, id := range order {
		group := groups[id]
		best := 0
		for i := 1; i < len(group); i++ {
			if version.Order(group[i].Version, group[best].Version) > 0 {
				best = i
			}
		}
		unique = append(unique, group[best])
		for i, m := range group {
			if i != best {
				duplicates = append(duplicates, m)
			}
		}
	}
	return unique, duplicates
}
