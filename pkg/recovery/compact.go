package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// CompactOrdinals closes gaps in a sorted set of ordinals (e.g. 0,1,3,4 ->
// 0,1,2,3), preserving relative order. It is idempotent: compacting an
// already-dense set returns the identity mapping (property F4).
func CompactOrdinals(ordinals []int) map[int]int {
	sorted := append([]int(nil), ordinals...)
	sort.Ints(sorted)
	mapping := make(map[int]int, len(sorted))
	for i, o := range sorted {
		mapping[o] = i
	}
	return mapping
}

// CompactInteractions renumbers interactions in place per CompactOrdinals
// and returns them re-sorted by new ordinal.
func CompactInteractions(interactions []*Interaction) []*Interaction {
	ordinals := make([]int, len(interactions))
	for i, it := range interactions {
		ordinals[i] = it.Ordinal
	}
	mapping := CompactOrdinals(ordinals)
	for _, it := range interactions {
		it.Ordinal = mapping[it.Ordinal]
	}
	sort.Slice(interactions, func(i, j int) bool { return interactions[i].Ordinal < interactions[j].Ordinal })
	return interactions
}

// CompactDir renames numbered interaction sub-directories of dir to close
// ordinal gaps on disk (spec.md §4.2: "gaps in ordinals... are closed by
// renaming directories").
func CompactDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("recovery: read dir %s: %w", dir, err)
	}
	var ordinals []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil {
			ordinals = append(ordinals, n)
		}
	}
	mapping := CompactOrdinals(ordinals)

	// Rename through a temporary namespace first to avoid clobbering a
	// target ordinal that is also a source ordinal.
	for old := range mapping {
		tmp := filepath.Join(dir, fmt.Sprintf(".compact-%d", old))
		if err := os.Rename(filepath.Join(dir, strconv.Itoa(old)), tmp); err != nil {
			return fmt.Errorf("recovery: stage rename %d: %w", old, err)
		}
	}
	for old, new := range mapping {
		tmp := filepath.Join(dir, fmt.Sprintf(".compact-%d", old))
		dst := filepath.Join(dir, strconv.Itoa(new))
		if err := os.Rename(tmp, dst); err != nil {
			return fmt.Errorf("recovery: finalize rename %d->%d: %w", old, new, err)
		}
	}
	return nil
}
