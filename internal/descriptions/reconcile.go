package descriptions

import (
	"maps"
	"sort"

	"github.com/caffetsong/md-tree-updater/internal/types"
)

// Reconciliation is the outcome of comparing a mapping with the live paths.
type Reconciliation struct {
	Mapping Mapping               // the new mapping; keys equal the live path set
	Added   []string              // live paths that had no entry, in live order
	Removed []types.ArchivedEntry // entries whose paths are gone, sorted by path
}

// Changed reports whether the description file needs to be rewritten.
func (r Reconciliation) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconcile computes both set differences against the same snapshot and then
// applies them in one step. current is not modified.
func Reconcile(current Mapping, live []string) Reconciliation {
	liveSet := make(map[string]struct{}, len(live))
	for _, p := range live {
		liveSet[p] = struct{}{}
	}

	var added []string
	seen := make(map[string]struct{}, len(live))
	for _, p := range live {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := current[p]; !ok {
			added = append(added, p)
		}
	}

	var removed []types.ArchivedEntry
	for p, desc := range current {
		if _, ok := liveSet[p]; !ok {
			removed = append(removed, types.ArchivedEntry{Path: p, Description: desc})
		}
	}
	sort.Slice(removed, func(i, j int) bool {
		return removed[i].Path < removed[j].Path
	})

	next := make(Mapping, len(liveSet))
	maps.Copy(next, current)
	for _, p := range added {
		next[p] = ""
	}
	for _, entry := range removed {
		delete(next, entry.Path)
	}

	return Reconciliation{
		Mapping: next,
		Added:   added,
		Removed: removed,
	}
}
