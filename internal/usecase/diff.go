package usecase

import "variantsync-backend/internal/domain"

// DiffURLs computes the positional diff between a snapshot URL list and a
// freshly extracted one: index-wise replacements (including appends past
// the old length), plus trailing removals when the new list is shorter.
func DiffURLs(old, fresh []string) domain.VariantDiff {
	var diff domain.VariantDiff

	for idx, url := range fresh {
		if idx >= len(old) {
			diff.Changes = append(diff.Changes, domain.URLChange{Index: idx, New: url})
			continue
		}
		if old[idx] != url {
			diff.Changes = append(diff.Changes, domain.URLChange{Index: idx, Old: old[idx], New: url})
		}
	}

	for idx := len(fresh); idx < len(old); idx++ {
		diff.Removed = append(diff.Removed, domain.URLRemoval{Index: idx, URL: old[idx]})
	}

	return diff
}
