package catalog

import "sort"

// PrimaryAuthor returns the numerically smallest author id. It is the only
// place the tie-break is decided; books and series both go through it.
func PrimaryAuthor(ids []uint) (uint, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	primary := ids[0]
	for _, id := range ids[1:] {
		if id < primary {
			primary = id
		}
	}
	return primary, true
}

// UniqueIDs returns ids without duplicates, sorted ascending.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
