// internal/status/status.go
package status

import (
	"sort"

	"grit/shared/utils"
)

// ModifiedEntry is a tracked file whose working-tree content no longer
// matches the tip snapshot. Deleted marks files missing from the
// working tree entirely.
type ModifiedEntry struct {
	Path    string
	Deleted bool
}

// Report partitions every observed path into exactly one bucket.
// Clean holds tracked, unmodified, unstaged paths; the CLI does not
// display it, but keeping it makes the partition total.
type Report struct {
	Staged    []string
	Removed   []string
	Modified  []ModifiedEntry
	Untracked []string
	Clean     []string
}

// Reconcile classifies the union of working-tree, staging-index and
// tip-snapshot paths. Staged state wins over tip comparison, which
// wins over untracked: the staging area reflects the user's most
// recent explicit intent.
func Reconcile(worktree, staged map[string]string, removed map[string]bool, tip map[string]string) *Report {
	r := &Report{}

	seen := make(map[string]bool)
	for _, m := range []map[string]string{worktree, staged, tip} {
		for p := range m {
			seen[p] = true
		}
	}
	for p := range removed {
		seen[p] = true
	}

	for _, path := range utils.SortedKeys(seen) {
		if _, ok := staged[path]; ok {
			r.Staged = append(r.Staged, path)
			continue
		}
		if removed[path] {
			r.Removed = append(r.Removed, path)
			continue
		}
		if tipHash, tracked := tip[path]; tracked {
			wtHash, present := worktree[path]
			switch {
			case !present:
				r.Modified = append(r.Modified, ModifiedEntry{Path: path, Deleted: true})
			case wtHash != tipHash:
				r.Modified = append(r.Modified, ModifiedEntry{Path: path})
			default:
				r.Clean = append(r.Clean, path)
			}
			continue
		}
		r.Untracked = append(r.Untracked, path)
	}

	sort.Slice(r.Modified, func(i, j int) bool { return r.Modified[i].Path < r.Modified[j].Path })

	return r
}
